package model

// Document is a rendered printable page.
type Document struct {
	Title string
	HTML  string
}

type EmailReferralRequest struct {
	To string `json:"to" binding:"required,email"`
}

type EmailReferralResponse struct {
	Message string `json:"message"`
	To      string `json:"to"`
}
