package client

import (
	"context"
	"fmt"
	"net/url"
	"roombook/pkg/model"
	"time"
)

type RoomSlotClient struct {
	httpClient *HttpClient
}

func NewRoomSlotClient(baseUrl, token string) *RoomSlotClient {
	return &RoomSlotClient{
		httpClient: NewHttpClient(baseUrl, token),
	}
}

func (c *RoomSlotClient) Register(ctx context.Context, body *model.RoomSlotCreate) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/room-slots", body)
}

func (c *RoomSlotClient) List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if filter.RoomID != "" {
		q.Set("room_id", filter.RoomID)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.From != nil {
		q.Set("from", filter.From.Format(time.RFC3339))
	}
	if filter.To != nil {
		q.Set("to", filter.To.Format(time.RFC3339))
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET(ctx, "/api/v1/room-slots?"+q.Encode())
}

func (c *RoomSlotClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/room-slots/id/"+url.PathEscape(id))
}

func (c *RoomSlotClient) Update(ctx context.Context, id string, body *model.RoomSlotUpdate) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/room-slots/id/"+url.PathEscape(id), body)
}

func (c *RoomSlotClient) Retire(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/room-slots/id/"+url.PathEscape(id))
}

func (c *RoomSlotClient) DecodeSlot(resp *Response) (*model.RoomSlot, error) {
	return decodeData[*model.RoomSlot](resp)
}

func (c *RoomSlotClient) DecodeSlots(resp *Response) ([]*model.RoomSlot, *Metadata, error) {
	return decodePage[*model.RoomSlot](resp)
}
