package scheduling

import "time"

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CreateScheduleInput struct {
	LeadID       string `json:"lead_id"`
	CustomerName string `json:"customer_name"`
	Notes        string `json:"notes,omitempty"`
}

type authRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type slotsResponse struct {
	Slots []TimeSlot `json:"slots"`
}

type createScheduleRequest struct {
	ExternalRef  string `json:"external_ref"`
	CustomerName string `json:"customer_name"`
	Notes        string `json:"notes,omitempty"`
}

type createScheduleResponse struct {
	ID string `json:"id"`
}
