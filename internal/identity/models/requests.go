package models

// RegisterRequest is the POST /api/register body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the POST /api/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityResponse is the success payload for register and login. It carries
// only public identity fields; the raw secret and credential hash never leave
// the service.
type IdentityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PublicIdentity projects a stored user onto the response shape.
func PublicIdentity(u *User) IdentityResponse {
	return IdentityResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
