package dto

// CreateRegistrationRequest files a copyright registration form.
type CreateRegistrationRequest struct {
	ApplicantName     string `json:"applicantName" binding:"required,max=200"`
	ApplicantDocument string `json:"applicantDocument" binding:"required,max=30"`
	WorkTitle         string `json:"workTitle" binding:"required,max=300"`
	WorkType          string `json:"workType" binding:"required,max=100"`
}

// NoteRequest carries a mandatory note (return reasons, legal notes).
type NoteRequest struct {
	Note string `json:"note" binding:"required,max=2000"`
}

// FileRefRequest carries a reference to a stored certificate file.
type FileRefRequest struct {
	FileRef string `json:"fileRef" binding:"required,max=500"`
}
