// Package dashboard implements the GreenSat terminal dashboard using
// BubbleTea: live reading cards with gauges and sparklines, the range chart
// with granularity and metric-mode tabs, and the system log.
package dashboard

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/logging"
	"github.com/luki/greensat/internal/session"
	"github.com/luki/greensat/internal/telemetry"
	"github.com/luki/greensat/internal/timerange"
)

const clockInterval = time.Second

// ── Messages ─────────────────────────────────────────────────────────

type clockMsg time.Time

type limitsMsg struct {
	limits telemetry.Limits
	err    error
}

type loadMsg session.LoadResult

type pollMsg struct {
	sample telemetry.Sample
	err    error
}

// ── Model ────────────────────────────────────────────────────────────

// Options configures the dashboard.
type Options struct {
	Fetcher      session.Fetcher
	Session      *session.Session
	Ring         *logging.Ring
	Log          *logging.Logger
	PollInterval time.Duration
	Theme        string
	Audio        bool
	Now          func() time.Time
	// Bell receives the terminal bell on critical polls. Defaults to stderr.
	Bell io.Writer
}

// Model is the BubbleTea model for the dashboard.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	fetcher  session.Fetcher
	sess     *session.Session
	ring     *logging.Ring
	log      *logging.Logger
	interval time.Duration
	polls    chan pollMsg

	theme     theme
	audio     bool
	audioInit bool
	bell      io.Writer
	now       func() time.Time
	clock     time.Time

	help   help.Model
	width  int
	height int
	scroll int
}

// New creates the dashboard model.
func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Bell == nil {
		opts.Bell = os.Stderr
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = session.DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ctx:       ctx,
		cancel:    cancel,
		fetcher:   opts.Fetcher,
		sess:      opts.Session,
		ring:      opts.Ring,
		log:       opts.Log,
		interval:  opts.PollInterval,
		polls:     make(chan pollMsg),
		theme:     themeByName(opts.Theme),
		audio:     opts.Audio,
		audioInit: opts.Audio,
		bell:      opts.Bell,
		now:       opts.Now,
		clock:     opts.Now(),
		help:      help.New(),
	}
}

// Run starts the dashboard in the alternate screen and blocks until quit.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.cancel()
	return err
}

// ── Commands ─────────────────────────────────────────────────────────

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (m Model) fetchLimits() tea.Msg {
	lim, err := m.fetcher.Limits(m.ctx)
	return limitsMsg{limits: lim, err: err}
}

func (m Model) loadCmd(req session.LoadRequest) tea.Cmd {
	ctx, f := m.ctx, m.fetcher
	return func() tea.Msg {
		return loadMsg(session.Load(ctx, f, req))
	}
}

// startPoller runs the live poll loop for the life of the program. Each
// outcome is handed to Update through the polls channel; the next poll is
// only scheduled once Update has taken it.
func (m Model) startPoller() tea.Msg {
	ctx, ch := m.ctx, m.polls
	session.Poller{Fetcher: m.fetcher, Interval: m.interval}.Run(ctx, func(s telemetry.Sample, err error) {
		select {
		case ch <- pollMsg{sample: s, err: err}:
		case <-ctx.Done():
		}
	})
	return nil
}

func (m Model) waitForPoll() tea.Msg {
	select {
	case msg := <-m.polls:
		return msg
	case <-m.ctx.Done():
		return nil
	}
}

func (m Model) ringBell() tea.Msg {
	_, _ = io.WriteString(m.bell, "\a")
	return nil
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	m.sess.Start()
	return tea.Batch(m.fetchLimits, m.startPoller, m.waitForPoll, clockCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case clockMsg:
		m.clock = time.Time(msg)
		return m, clockCmd()

	case limitsMsg:
		req := m.sess.OnLimits(msg.limits, msg.err)
		return m, m.loadCmd(req)

	case loadMsg:
		m.sess.ApplyLoad(session.LoadResult(msg))

	case pollMsg:
		res := m.sess.OnPoll(msg.sample, msg.err)
		cmds := []tea.Cmd{m.waitForPoll}
		if res.OK && res.Critical && m.audio {
			cmds = append(cmds, m.ringBell)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, keys.Day):
		return m, m.loadCmd(m.sess.OnGranularity(timerange.Day))
	case key.Matches(msg, keys.Week):
		return m, m.loadCmd(m.sess.OnGranularity(timerange.Week))
	case key.Matches(msg, keys.Month):
		return m, m.loadCmd(m.sess.OnGranularity(timerange.Month))
	case key.Matches(msg, keys.Year):
		return m, m.loadCmd(m.sess.OnGranularity(timerange.Year))

	case key.Matches(msg, keys.Prev):
		if req, ok := m.sess.OnNavigate(-1); ok {
			return m, m.loadCmd(req)
		}
	case key.Matches(msg, keys.Next):
		if req, ok := m.sess.OnNavigate(1); ok {
			return m, m.loadCmd(req)
		}
	case key.Matches(msg, keys.Reload):
		return m, m.loadCmd(m.sess.OnReload())

	case key.Matches(msg, keys.Thermal):
		m.sess.OnModeSwitch(chart.Thermal)
	case key.Matches(msg, keys.Air):
		m.sess.OnModeSwitch(chart.Air)
	case key.Matches(msg, keys.Light):
		m.sess.OnModeSwitch(chart.Light)

	case key.Matches(msg, keys.Theme):
		m.theme = m.theme.toggled()
		m.sess.OnThemeChange(m.theme.name == lightTheme.name)

	case key.Matches(msg, keys.Audio):
		m.audio = !m.audio
		if m.audio && !m.audioInit {
			m.audioInit = true
			m.log.Info("Audio System Initialized.")
		}

	case key.Matches(msg, keys.Up):
		if m.scroll > 0 {
			m.scroll--
		}
	case key.Matches(msg, keys.Down):
		m.scroll++

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}
