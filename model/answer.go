package model

type Answer struct {
	QuestionID int64          `json:"questionId"`
	Value      any            `json:"value"`
	FileInfo   []UploadedFile `json:"fileInfo,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// UploadedFile is one entry of a file_upload answer. It starts as a
// placeholder with Uploading set and is replaced in place, by ID, once the
// upload resolves.
type UploadedFile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	Type           string `json:"type"`
	URL            string `json:"url"`
	PublicID       string `json:"publicId"`
	DeleteToken    string `json:"deleteToken,omitempty"`
	Uploading      bool   `json:"uploading"`
	UploadProgress int    `json:"uploadProgress,omitempty"`
}
