package api

import "time"

// Return-request statuses as stored by the backend.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is a status the backend accepts for
// update_status. The backend answers 400 for anything else, so the client
// checks before issuing the PATCH.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ReturnRequest mirrors the payload returned by /return-requests/.
// Records are server-owned: the client never mutates one locally and
// re-fetches after any write.
type ReturnRequest struct {
	ID          int64        `json:"id"`
	Barcode     string       `json:"barcode"`
	Status      string       `json:"status"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	AdminNotes  string       `json:"admin_notes"`
	MediaFiles  []MediaFile  `json:"media_files"`
	UserDetails *UserDetails `json:"user_details,omitempty"`
}

// MediaFile is one evidentiary attachment of a return request.
type MediaFile struct {
	ID         int64  `json:"id"`
	MediaType  string `json:"media_type"` // image | video
	FileURL    string `json:"file_url"`
	UploadedAt string `json:"uploaded_at"`
}

// UserDetails identifies the submitting user. Only populated for staff.
type UserDetails struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Profile mirrors /profile/.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

// Statistics mirrors /return-requests/statistics/.
type Statistics struct {
	TotalRequests int `json:"total_requests"`
	Pending       int `json:"pending"`
	Approved      int `json:"approved"`
	Rejected      int `json:"rejected"`
}

// TokenPair is the credential pair issued at login and registration.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest carries the fields accepted by /register/.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RegisterResponse mirrors the /register/ payload: the created user plus a
// token pair, so a fresh registration is immediately signed in.
type RegisterResponse struct {
	User    Profile `json:"user"`
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
}

// ParsedCreatedAt parses the record's creation timestamp. Invalid or missing
// timestamps return the zero time.
func (r ReturnRequest) ParsedCreatedAt() time.Time {
	return parseTimestamp(r.CreatedAt)
}

// ParsedUpdatedAt parses the record's last-update timestamp.
func (r ReturnRequest) ParsedUpdatedAt() time.Time {
	return parseTimestamp(r.UpdatedAt)
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
