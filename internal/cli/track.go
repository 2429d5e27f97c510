package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/quickadd"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var (
	trackTitleStyle  = lipgloss.NewStyle().Bold(true)
	trackFooterStyle = lipgloss.NewStyle().Faint(true)
	trackInputStyle  = lipgloss.NewStyle().Reverse(true)
)

var errNoTTY = errors.New("track needs an interactive terminal, use food add instead")

var trackCmd = LeafCommand{
	Use:   "track",
	Short: "Quick-add food with single key presses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return runTrack(cmd, s.tracker, trackOptions{
				amounts: s.cfg.QuickAdd.Amounts,
				timeout: s.cfg.QuickAddTimeout(),
				isTTY:   stdoutIsTTY,
			})
		})
	},
}.Build()

type trackOptions struct {
	amounts []float64
	timeout time.Duration
	isTTY   func() bool
}

func stdoutIsTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runTrack(cmd *cobra.Command, tr *tracker.Tracker, opts trackOptions) error {
	if !opts.isTTY() {
		return errNoTTY
	}
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	v, err := tr.Today(ctx)
	if err != nil {
		return err
	}
	if !v.Active() {
		return tracker.ErrNotActive
	}
	if !v.Weighed() {
		return errors.New("log your morning weight first with regnemetoden weigh <kg>")
	}

	var p *tea.Program
	// callbacks may run inside Update, where a blocking Send would deadlock
	send := func(msg tea.Msg) {
		if p != nil {
			go p.Send(msg)
		}
	}
	buf := tr.NewQuickAdd(ctx, quickadd.Options{
		Timeout:  opts.timeout,
		OnError:  func(err error) { send(trackErrMsg{err}) },
		OnChange: func() { send(bufferChangedMsg{}) },
	})
	defer buf.Close()

	views, err := tr.Watch(ctx)
	if err != nil {
		return err
	}

	m := newTrackModel(ctx, tr, buf, opts.amounts, v)
	m.views = views
	p = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(trackModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

type (
	bufferChangedMsg struct{}
	trackErrMsg      struct{ err error }
	viewMsg          tracker.View
)

type trackModel struct {
	ctx     context.Context
	tracker *tracker.Tracker
	buffer  *quickadd.Buffer
	amounts []float64
	views   <-chan tracker.View

	view    tracker.View
	manual  bool
	input   string
	message string
	err     error
}

func newTrackModel(ctx context.Context, tr *tracker.Tracker, buf *quickadd.Buffer, amounts []float64, v tracker.View) trackModel {
	return trackModel{
		ctx:     ctx,
		tracker: tr,
		buffer:  buf,
		amounts: amounts,
		view:    v,
	}
}

// waitForView delivers the next view pushed by the store.
func waitForView(views <-chan tracker.View) tea.Cmd {
	if views == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

func (m trackModel) Init() tea.Cmd {
	return waitForView(m.views)
}

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.view = tracker.View(msg)
		return m, waitForView(m.views)
	case bufferChangedMsg:
		return m.refresh(), nil
	case trackErrMsg:
		m.message = Error(msg.err.Error())
		return m.refresh(), nil
	case tea.KeyMsg:
		if m.manual {
			return m.updateManual(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m trackModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "esc", "ctrl+c":
		if err := m.buffer.FlushNow(); err != nil {
			m.err = err
		}
		return m, tea.Quit
	case "u":
		if err := m.buffer.FlushNow(); err != nil {
			m.message = Error(err.Error())
		} else {
			m.message = ""
		}
		return m.refresh(), nil
	case "m":
		m.manual = true
		m.input = ""
		m.message = ""
		return m, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		i := int(key[0] - '1')
		if i < len(m.amounts) {
			if err := m.buffer.Push(m.amounts[i]); err != nil {
				m.message = Error(err.Error())
			}
		}
	}
	return m, nil
}

// updateManual edits the signed gram amount typed after pressing m.
func (m trackModel) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.manual = false
		m.input = ""
		return m, nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	case tea.KeyEnter:
		return m.submitManual(), nil
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if strings.ContainsRune("0123456789-.,", r) {
				m.input += string(r)
			}
		}
	}
	return m, nil
}

// submitManual commits anything buffered first so entries keep their order.
func (m trackModel) submitManual() trackModel {
	amount, err := parseNumber(m.input)
	if err != nil {
		m.message = Error(err.Error())
		return m
	}
	if err := m.buffer.FlushNow(); err != nil {
		m.message = Error(err.Error())
		return m
	}
	if _, err := m.tracker.AddFood(m.ctx, amount); err != nil {
		m.message = Error(err.Error())
		return m
	}
	m.manual = false
	m.input = ""
	m.message = Text("logged " + formatSignedGrams(amount))
	return m.refresh()
}

func (m trackModel) refresh() trackModel {
	v, err := m.tracker.Today(m.ctx)
	if err != nil {
		m.message = Error(err.Error())
		return m
	}
	m.view = v
	return m
}

func (m trackModel) View() string {
	v := m.view
	var b strings.Builder

	b.WriteString(trackTitleStyle.Render(fmt.Sprintf("Day %d · %s", v.DayNumber, formatDate(v.Date))))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s  %s\n", Silent("Allowance:"), Text(formatGrams(v.Allowance)))
	fmt.Fprintf(&b, "%s   %s\n", Silent("Consumed:"), Text(formatGrams(v.Consumed)))
	fmt.Fprintf(&b, "%s  %s\n", Silent("Remaining:"), remainingStyle(v.Remaining)(formatGrams(v.Remaining)))
	b.WriteString(Info(progressBar(v.Progress, barWidth)))
	b.WriteString("\n\n")

	if pending := m.buffer.Pending(); len(pending) > 0 {
		parts := make([]string, len(pending))
		for i, p := range pending {
			parts[i] = formatSignedGrams(p)
		}
		fmt.Fprintf(&b, "%s  %s %s\n", Warning("Pending:"), Text(strings.Join(parts, " ")),
			Primary("= "+formatGrams(m.buffer.Total())))
	} else {
		b.WriteString(Silent("Pending:  nothing") + "\n")
	}

	if m.manual {
		fmt.Fprintf(&b, "\n%s %s %s\n", Text("Amount in grams:"), trackInputStyle.Render(m.input+" "), Silent("(enter to log, esc to cancel)"))
	}
	if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}

	keys := make([]string, 0, len(m.amounts)+3)
	for i, a := range m.amounts {
		keys = append(keys, fmt.Sprintf("%d: %s", i+1, formatSignedGrams(a)))
	}
	keys = append(keys, "m: manual", "u: log now", "q: quit")
	b.WriteString("\n" + trackFooterStyle.Render(strings.Join(keys, "  ")) + "\n")
	return b.String()
}
