package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/splitfair/internal/client/client"
	"github.com/dmitrijs2005/splitfair/internal/client/models"
)

type EventService interface {
	List(ctx context.Context) ([]models.Event, error)
	Create(ctx context.Context, ev models.NewEvent) error
}

type EventPaths struct {
	List   string
	Create string
}

type eventService struct {
	api   Doer
	paths EventPaths
}

func NewEventService(api Doer, paths EventPaths) EventService {
	if paths.List == "" {
		paths.List = "/api/events/"
	}
	if paths.Create == "" {
		paths.Create = "/api/events/create/"
	}
	return &eventService{api: api, paths: paths}
}

func (s *eventService) List(ctx context.Context) ([]models.Event, error) {
	resp, err := s.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: s.paths.List})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	var events []models.Event
	if err := resp.Decode(&events); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *eventService) Create(ctx context.Context, ev models.NewEvent) error {
	name := strings.TrimSpace(ev.Name)
	if name == "" {
		return fmt.Errorf("create event: name is required")
	}
	form := url.Values{
		"name":         {name},
		"description":  {ev.Description},
		"participants": {ev.ParticipantsField()},
	}
	if _, err := s.api.Do(ctx, &client.Request{Method: http.MethodPost, Path: s.paths.Create, Form: form}); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}
