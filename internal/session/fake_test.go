package session

import (
	"context"
	"sync"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

// fakeAgent is a scripted agent.Agent that counts calls.
type fakeAgent struct {
	mu    sync.Mutex
	calls map[string]int

	controller  models.Controller
	instruments []models.Instrument
	ticker      models.Ticker
	logs        []models.LogEntry

	// err, when set, is returned by the named command.
	err map[string]error
	// gate, when set, blocks the named command until closed.
	gate map[string]chan struct{}
	// entered is signalled when a gated command starts waiting.
	entered chan string

	posted []models.Controller
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		calls:      make(map[string]int),
		err:        make(map[string]error),
		gate:       make(map[string]chan struct{}),
		entered:    make(chan string, 8),
		controller: models.DefaultController(),
	}
}

func (f *fakeAgent) enter(command string) error {
	f.mu.Lock()
	f.calls[command]++
	gate := f.gate[command]
	err := f.err[command]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- command
		<-gate
	}
	return err
}

func (f *fakeAgent) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[command]
}

func (f *fakeAgent) fail(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err[command] = err
}

func (f *fakeAgent) block(command string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gate[command] = ch
	return ch
}

func refusal(command, msg, cause string) error {
	return errors.NewAgentCallError(command, msg, cause, nil)
}

func (f *fakeAgent) StartController(ctx context.Context) (*models.Controller, error) {
	if err := f.enter("start_controller"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controller.IsRunning = true
	c := f.controller
	return &c, nil
}

func (f *fakeAgent) StopController(ctx context.Context) (*models.Controller, error) {
	if err := f.enter("stop_controller"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controller.IsRunning = false
	c := f.controller
	return &c, nil
}

func (f *fakeAgent) GetController(ctx context.Context) (*models.Controller, error) {
	if err := f.enter("get_controller"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.controller
	return &c, nil
}

func (f *fakeAgent) store(command string, c models.Controller) (*models.Controller, error) {
	if err := f.enter(command); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, c)
	f.controller = c
	return &c, nil
}

func (f *fakeAgent) PostController(ctx context.Context, c models.Controller) (*models.Controller, error) {
	return f.store("post_controller", c)
}

func (f *fakeAgent) PutController(ctx context.Context, c models.Controller) (*models.Controller, error) {
	return f.store("put_controller", c)
}

func (f *fakeAgent) DeleteController(ctx context.Context) (*models.Controller, error) {
	if err := f.enter("delete_controller"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controller = models.DefaultController()
	c := f.controller
	return &c, nil
}

func (f *fakeAgent) GetInstruments(ctx context.Context, exchange models.ExchangeName) ([]models.Instrument, error) {
	if err := f.enter("get_instruments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Instrument, len(f.instruments))
	copy(out, f.instruments)
	return out, nil
}

func (f *fakeAgent) GetTicker(ctx context.Context, exchange models.ExchangeName, symbol string) (*models.Ticker, error) {
	if err := f.enter("get_ticker"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.ticker
	return &t, nil
}

func (f *fakeAgent) GetLogger(ctx context.Context) ([]models.LogEntry, error) {
	if err := f.enter("get_logger"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.logs
	f.logs = nil
	return out, nil
}

func (f *fakeAgent) ClearLogger(ctx context.Context) error {
	return f.enter("clear_logger")
}
