package transfer

// Tweet is the subset of the Twitter API v1.1 status object this service
// consumes. Extended entities carry the full media list; the plain entities
// block only ever holds the first attachment.
type Tweet struct {
	ID               int64            `json:"id"`
	IDStr            string           `json:"id_str"`
	Text             string           `json:"text"`
	CreatedAt        string           `json:"created_at"`
	Entities         TweetEntities    `json:"entities"`
	ExtendedEntities ExtendedEntities `json:"extended_entities"`
}

type TweetEntities struct {
	Hashtags []Hashtag `json:"hashtags"`
}

type ExtendedEntities struct {
	Media []Media `json:"media"`
}

type Hashtag struct {
	Text string `json:"text"`
}

// Media is a single photo/video/animated_gif attachment.
type Media struct {
	IDStr         string     `json:"id_str"`
	Type          string     `json:"type"` // photo, video, animated_gif
	MediaURLHTTPS string     `json:"media_url_https"`
	VideoInfo     *VideoInfo `json:"video_info,omitempty"`
}

type VideoInfo struct {
	Variants []VideoVariant `json:"variants"`
}

type VideoVariant struct {
	Bitrate     int    `json:"bitrate,omitempty"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type TwitterErrorResponse struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

const (
	MediaTypePhoto = "photo"
	MediaTypeVideo = "video"
)

// HashtagTexts returns the tweet's hashtags in the order Twitter reports
// them.
func (t *Tweet) HashtagTexts() []string {
	texts := make([]string, 0, len(t.Entities.Hashtags))
	for _, h := range t.Entities.Hashtags {
		texts = append(texts, h.Text)
	}
	return texts
}
