package client

import (
	"context"
	"fmt"
	"net/url"
	"roombook/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl, token string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl, token),
	}
}

func (c *BookingClient) Create(ctx context.Context, body *model.BookingCreate) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", body)
}

// CreateIdempotent sends Create with an Idempotency-Key so a retried request
// replays the first result.
func (c *BookingClient) CreateIdempotent(ctx context.Context, body *model.BookingCreate, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", body, map[string]string{"Idempotency-Key": key})
}

func (c *BookingClient) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if filter.UserID != "" {
		q.Set("user_id", filter.UserID)
	}
	if filter.RoomSlotID != "" {
		q.Set("room_slot_id", filter.RoomSlotID)
	}
	if filter.RoomID != "" {
		q.Set("room_id", filter.RoomID)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET(ctx, "/api/v1/bookings?"+q.Encode())
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) Reschedule(ctx context.Context, id string, body *model.BookingReschedule) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/slot", body)
}

func (c *BookingClient) UpdateStatus(ctx context.Context, id string, body *model.BookingStatusUpdate) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/status", body)
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *BookingClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	return decodeData[*model.Booking](resp)
}

func (c *BookingClient) DecodeBookingDetails(resp *Response) (*model.BookingDetails, error) {
	return decodeData[*model.BookingDetails](resp)
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	return decodePage[*model.Booking](resp)
}
