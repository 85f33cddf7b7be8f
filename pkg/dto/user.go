package dto

type User struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	AvatarURL         *string `json:"avatarUrl,omitempty"`
	DisplayName       string  `json:"displayName"`
	DisplayPreference string  `json:"displayPreference"`
}

type UpdateUserRequest struct {
	DisplayPreference string `json:"displayPreference"`
}
