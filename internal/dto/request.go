package dto

type CreateBookingRequest struct {
	Worker      string  `json:"worker" validate:"required,uuid"`
	User        string  `json:"user" validate:"required,uuid"`
	StartDate   string  `json:"startDate" validate:"required"`
	EndDate     string  `json:"endDate" validate:"required"`
	HoursPerDay float64 `json:"hoursPerDay" validate:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateReviewRequest struct {
	Worker  string `json:"worker" validate:"required,uuid"`
	User    string `json:"user" validate:"required,uuid"`
	Booking string `json:"booking" validate:"required,uuid"`
	Comment string `json:"comment" validate:"max=2000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}
