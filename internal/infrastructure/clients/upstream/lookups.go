package upstream

import (
	"context"
	"net/url"
)

// PatientClient fetches patient records from the patient service
type PatientClient struct {
	client *Client
}

// NewPatientClient creates a patient service client
func NewPatientClient(client *Client) *PatientClient {
	return &PatientClient{client: client}
}

// GetByID retrieves a patient by ID
func (p *PatientClient) GetByID(ctx context.Context, id string) (*Patient, error) {
	out := &Patient{}
	if err := p.client.GetJSON(ctx, "/api/v1/patients/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// DoctorClient fetches doctor records from the doctor service
type DoctorClient struct {
	client *Client
}

// NewDoctorClient creates a doctor service client
func NewDoctorClient(client *Client) *DoctorClient {
	return &DoctorClient{client: client}
}

// GetByID retrieves a doctor by ID
func (d *DoctorClient) GetByID(ctx context.Context, id string) (*Doctor, error) {
	out := &Doctor{}
	if err := d.client.GetJSON(ctx, "/api/v1/doctors/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserClient fetches user accounts from the user service
type UserClient struct {
	client *Client
}

// NewUserClient creates a user service client
func NewUserClient(client *Client) *UserClient {
	return &UserClient{client: client}
}

// GetByID retrieves a user by ID
func (u *UserClient) GetByID(ctx context.Context, id string) (*User, error) {
	out := &User{}
	if err := u.client.GetJSON(ctx, "/api/v1/users/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionClient fetches session types and offerings from the session service
type SessionClient struct {
	client *Client
}

// NewSessionClient creates a session service client
func NewSessionClient(client *Client) *SessionClient {
	return &SessionClient{client: client}
}

// GetSessionType retrieves a session type by ID
func (s *SessionClient) GetSessionType(ctx context.Context, id string) (*SessionType, error) {
	out := &SessionType{}
	if err := s.client.GetJSON(ctx, "/api/v1/session-types/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSessionOffering retrieves a session offering by ID
func (s *SessionClient) GetSessionOffering(ctx context.Context, id string) (*SessionOffering, error) {
	out := &SessionOffering{}
	if err := s.client.GetJSON(ctx, "/api/v1/session-offerings/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}
