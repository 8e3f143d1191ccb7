package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/splitfair/internal/client/models"
)

func (a *App) Events(ctx context.Context) error {
	events, err := a.eventService.List(ctx)
	if err != nil {
		return a.fail(ctx, "Listing events", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPARTICIPANTS\tCREATED")
	for _, e := range events {
		created := ""
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Title, strings.Join(e.Participants, ", "), created)
	}
	return w.Flush()
}

func (a *App) NewEvent(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Event name", a.out)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	participants, err := GetSimpleText(a.reader, "Participants, comma-separated", a.out)
	if err != nil {
		return err
	}

	err = a.eventService.Create(ctx, models.NewEvent{
		Name:         name,
		Description:  description,
		Participants: models.ParseParticipants(participants),
	})
	if err != nil {
		return a.fail(ctx, "Creating event", err)
	}
	fmt.Fprintf(a.out, "Event %q created\n", name)
	return nil
}
