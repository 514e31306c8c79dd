package model

// PresignRequest asks for a presigned upload URL into one of the image
// buckets ("avatars" or "recipe-images").
type PresignRequest struct {
	Bucket      string `json:"bucket"`
	ContentType string `json:"content_type"`
}

// PresignResponse carries the presigned PUT URL and the public URL the
// uploaded object will be served from.
type PresignResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}
