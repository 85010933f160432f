package host

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"geometry-relay/internal/models"
)

// RelayAPI is the part of the relay the host talks to.
type RelayAPI interface {
	IngestSnapshot(ctx context.Context, snapshot *models.GeometrySnapshot) error
	DequeueNext(ctx context.Context, projectName string) (*models.GeometryCommand, error)
}

// Agent connects a host document to the relay: one scheduled task drains commands, another
// pushes snapshots. Both hand document access to the Dispatcher.
type Agent struct {
	Relay      RelayAPI
	Dispatcher *Dispatcher
	Doc        Document
	Notifier   Notifier

	CommandInterval time.Duration
	ExportInterval  time.Duration
	RequestTimeout  time.Duration

	applier  *Applier
	exporter *Exporter
}

// NewAgent creates an agent with the default intervals.
func NewAgent(relay RelayAPI, dispatcher *Dispatcher, doc Document) *Agent {
	return &Agent{
		Relay:           relay,
		Dispatcher:      dispatcher,
		Doc:             doc,
		Notifier:        LogNotifier{},
		CommandInterval: time.Second,
		ExportInterval:  3 * time.Second,
		RequestTimeout:  5 * time.Second,
		applier:         &Applier{Doc: doc},
		exporter:        &Exporter{Doc: doc},
	}
}

// Start launches the command poller and the snapshot pusher. The returned function stops both.
func (a *Agent) Start(ctx context.Context) (stop func()) {
	commands := Every(ctx, "COMMANDS", a.CommandInterval, a.PollCommands)
	exports := Every(ctx, "EXPORT", a.ExportInterval, a.PushSnapshot)
	return func() {
		commands.Stop()
		exports.Stop()
	}
}

// PollCommands dequeues at most one command and applies it on the document goroutine.
// Apply failures go to the Notifier; the command is not re-queued.
func (a *Agent) PollCommands(ctx context.Context) error {
	project, err := a.projectName(ctx)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.RequestTimeout)
	cmd, err := a.Relay.DequeueNext(reqCtx, project)
	cancel()
	if err != nil {
		return errors.Wrap(err, "command poll failed")
	}
	if cmd == nil {
		return nil
	}

	log.Printf("[COMMANDS] Applying %s (%s)", cmd.CommandID, cmd.Type)
	applyErr := a.Dispatcher.Post(ctx, func() error {
		return a.applier.Apply(*cmd)
	})
	if applyErr != nil {
		a.Notifier.ApplyFailed(*cmd, applyErr)
	}
	return nil
}

// PushSnapshot exports the document on its goroutine and sends the snapshot to the relay.
func (a *Agent) PushSnapshot(ctx context.Context) error {
	var snapshot *models.GeometrySnapshot
	if err := a.Dispatcher.Post(ctx, func() error {
		snapshot = a.exporter.Snapshot()
		return nil
	}); err != nil {
		return err
	}
	if snapshot.ProjectName == "" {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.RequestTimeout)
	defer cancel()
	if err := a.Relay.IngestSnapshot(reqCtx, snapshot); err != nil {
		return errors.Wrap(err, "snapshot push failed")
	}
	return nil
}

func (a *Agent) projectName(ctx context.Context) (string, error) {
	var name string
	err := a.Dispatcher.Post(ctx, func() error {
		name = a.Doc.ProjectName()
		return nil
	})
	return name, err
}
