package api

// Shared response envelopes referenced by the swagger annotations.

type ErrorResponse struct {
	Error string `json:"error" example:"Slot does not have enough capacity"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Invoice sent successfully"`
}

type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	EmailQueue int64  `json:"email_queue" example:"0"`
}
