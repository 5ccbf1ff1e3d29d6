// Package api provides HTTP request validation structs with go-playground/validator tags.
// These structs are used to validate incoming API request bodies before processing.
//
// The validation tags follow the go-playground/validator v10 syntax:
//   - required: field must be present and non-zero
//   - min,max: numeric or string length bounds
//   - oneof: value must be one of the specified options
//   - omitempty: skip validation if field is empty/zero
package api

// ScreenRequestBody is the validated request body for POST /api/v1/screen.
// A screen is either a person (first_name/last_name) or an entity (name).
// The handler, not the validator tags, rejects a body with none of these
// fields set; a body with both shapes set is not rejected.
type ScreenRequestBody struct {
	ReferenceID string `json:"reference_id" validate:"omitempty,max=200"`
	FirstName   string `json:"first_name,omitempty" validate:"omitempty,max=200"`
	LastName    string `json:"last_name,omitempty" validate:"omitempty,max=200"`
	Name        string `json:"name,omitempty" validate:"omitempty,max=400"`
	Country     string `json:"country,omitempty" validate:"omitempty,len=2"`
	DOBYear     int    `json:"dob_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Limit       int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// MonitorSubjectRequestBody is the validated request body for POST /api/v1/monitor.
type MonitorSubjectRequestBody struct {
	ReferenceID string `json:"reference_id" validate:"required,max=200"`
	FirstName   string `json:"first_name,omitempty" validate:"omitempty,max=200"`
	LastName    string `json:"last_name,omitempty" validate:"omitempty,max=200"`
	Name        string `json:"name,omitempty" validate:"omitempty,max=400"`
	Country     string `json:"country,omitempty" validate:"omitempty,len=2"`
	DOBYear     int    `json:"dob_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	CallbackURL string `json:"callback_url" validate:"required,url"`
}

// BatchSubmitRequestBody is the validated request body for POST /api/v1/batch.
type BatchSubmitRequestBody struct {
	Records []BatchRecordBody `json:"records" validate:"required,min=1,max=10000,dive"`
}

// BatchRecordBody is one record within a batch submission.
type BatchRecordBody struct {
	ReferenceID string `json:"reference_id" validate:"required,max=200"`
	Name        string `json:"name" validate:"required,max=400"`
	Country     string `json:"country,omitempty" validate:"omitempty,len=2"`
	DOBYear     int    `json:"dob_year,omitempty" validate:"omitempty,min=1900,max=2100"`
}

// RiskPolicyRequestBody is the validated request body for PUT /api/v1/risk-policy.
type RiskPolicyRequestBody struct {
	HitThreshold    float64 `json:"hit_threshold" validate:"required,gt=0,lte=1"`
	ReviewThreshold float64 `json:"review_threshold" validate:"required,gt=0,lte=1"`
	NameWeight      float64 `json:"name_weight" validate:"required,gt=0,lte=1"`
	DOBWeight       float64 `json:"dob_weight" validate:"required,gte=0,lte=1"`
	CountryWeight   float64 `json:"country_weight" validate:"required,gte=0,lte=1"`
}

// CreateTenantRequestBody is the validated request body for POST /api/v1/tenants.
type CreateTenantRequestBody struct {
	Name                 string  `json:"name" validate:"required,min=1,max=200"`
	HitThreshold         float64 `json:"hit_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	ReviewThreshold      float64 `json:"review_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	RateLimitPerMinute   int     `json:"rate_limit_per_minute,omitempty" validate:"omitempty,min=1,max=100000"`
}
