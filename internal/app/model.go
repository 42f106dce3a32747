package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lkaiser/livecap/internal/backend"
	"github.com/lkaiser/livecap/internal/config"
	"github.com/lkaiser/livecap/internal/deeplink"
	"github.com/lkaiser/livecap/internal/player"
	"github.com/lkaiser/livecap/internal/stream"
	"github.com/lkaiser/livecap/internal/subtitle"
	"github.com/lkaiser/livecap/internal/summary"
	"github.com/lkaiser/livecap/internal/ui"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusFiles PanelFocus = iota
	FocusPlayer
	FocusSummary
)

// mediaExtensions are the files offered in the picker.
var mediaExtensions = map[string]bool{
	".mp4": true,
	".mp3": true,
	".wav": true,
}

const playbackTick = 250 * time.Millisecond

// Model is the root bubbletea model for the livecap TUI.
type Model struct {
	cfg *config.Config
	api *backend.API

	// File picker
	dir       string
	files     []string
	fileIndex int

	// Media scope: store, compiler and session are replaced together
	// when a new file is selected. sessionGen counts replacements so
	// timers armed by an old scope can be told apart.
	store      *subtitle.Store
	compiler   *subtitle.Compiler
	session    *stream.Session
	sessionGen int
	client     *backend.Client

	// Playback
	clock    *player.Clock
	seeker   deeplink.Seeker
	deepLink string
	playGen  int

	// Summary
	summaryState *summary.ViewState
	graphView    *summary.GraphView
	transform    summary.Transform
	outline      *summary.Node
	viewport     viewport.Model

	// UI state
	captionsOn bool
	focus      PanelFocus
	spin       spinner.Model
	width      int
	height     int

	statusText     string
	errorMessage   string
	errorTransient bool
}

// New creates a Model rooted at dir. deepLink is an optional timestamp
// fragment applied once playback metadata is known.
func New(cfg *config.Config, dir, deepLink string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = ui.SpinnerStyle

	return Model{
		cfg:          cfg,
		api:          backend.NewAPI(cfg.ServerAddr),
		dir:          dir,
		deepLink:     deepLink,
		clock:        player.NewClock(),
		summaryState: summary.NewViewState(),
		graphView:    summary.NewGraphView(),
		captionsOn:   true,
		focus:        FocusFiles,
		spin:         sp,
		statusText:   "Select a file to transcribe",
	}
}

// Init scans the working directory for media files.
func (m Model) Init() tea.Cmd {
	return tea.Batch(scanFilesCmd(m.dir), m.spin.Tick)
}

// scanFilesCmd lists the media files under dir.
func scanFilesCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return FilesLoadedMsg{}
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if mediaExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				files = append(files, e.Name())
			}
		}
		sort.Strings(files)
		return FilesLoadedMsg{Files: files}
	}
}

// preCheckCmd asks the daemon whether the file was already transcribed.
func preCheckCmd(api *backend.API, file string) tea.Cmd {
	return func() tea.Msg {
		doc, found, err := api.PreCheck(context.Background(), file)
		return PreCheckResultMsg{File: file, Doc: doc, Found: found, Err: err}
	}
}

// connectCmd opens the event socket and subscribes.
func connectCmd(addr, file string) tea.Cmd {
	return func() tea.Msg {
		client, err := backend.Connect(addr)
		if err != nil {
			return ConnectErrorMsg{File: file, Err: err}
		}
		if err := client.Subscribe(); err != nil {
			client.Close()
			return ConnectErrorMsg{File: file, Err: err}
		}
		return ConnectedMsg{File: file, Client: client}
	}
}

// readEventCmd reads the next event from the event socket.
func readEventCmd(client *backend.Client, file string) tea.Cmd {
	return func() tea.Msg {
		ev, err := client.ReadEvent()
		if err != nil {
			return EventErrorMsg{File: file, Err: err}
		}
		return EventMsg{File: file, Event: ev}
	}
}

// uploadCmd posts the media file for transcription.
func uploadCmd(api *backend.API, path, file string) tea.Cmd {
	return func() tea.Msg {
		_, err := api.Upload(context.Background(), path)
		return UploadResultMsg{File: file, Err: err}
	}
}

// summaryCmd fetches the summary for a finished transcription.
func summaryCmd(api *backend.API, file string) tea.Cmd {
	return func() tea.Msg {
		text, err := api.Summarize(context.Background(), file)
		return SummaryResultMsg{File: file, Summary: text, Err: err}
	}
}

// probeCmd reads the media duration.
func probeCmd(path, file string) tea.Cmd {
	return func() tea.Msg {
		info, err := player.Probe(path)
		return ProbeResultMsg{File: file, Info: info, Err: err}
	}
}

// compileTickCmd arms one debounce timer. The token identifies the arming
// within a media scope and gen identifies the scope itself; both must be
// current when the timer fires.
func compileTickCmd(file string, gen, token int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return CompileTickMsg{File: file, Gen: gen, Token: token}
	})
}

func playbackTickCmd(gen int) tea.Cmd {
	return tea.Tick(playbackTick, func(t time.Time) tea.Msg {
		return PlaybackTickMsg{Gen: gen, At: t}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.summaryPanelWidth()
		m.viewport.Height = m.contentHeight() - 2
		m.refreshSummaryViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case FilesLoadedMsg:
		m.files = msg.Files
		if len(m.files) == 0 {
			m.statusText = "No media files found here"
		}
		if m.fileIndex >= len(m.files) {
			m.fileIndex = max(0, len(m.files)-1)
		}
		return m, nil

	case PreCheckResultMsg:
		if m.session == nil {
			return m, nil
		}
		var effects []stream.Effect
		switch {
		case msg.Err != nil:
			effects = m.session.PreCheckFailed(msg.File, msg.Err.Error())
		case msg.Found:
			effects = m.session.PreCheckFound(msg.File, msg.Doc)
		default:
			effects = m.session.PreCheckMissing(msg.File)
		}
		return m, m.execEffects(effects)

	case ConnectedMsg:
		if m.session == nil || m.session.File() != msg.File {
			msg.Client.Close()
			return m, nil
		}
		m.client = msg.Client
		m.statusText = "Uploading " + msg.File
		cmds := []tea.Cmd{
			m.execEffects(m.session.TransportReady(msg.File)),
			readEventCmd(m.client, msg.File),
		}
		return m, tea.Batch(cmds...)

	case ConnectErrorMsg:
		if m.session == nil {
			return m, nil
		}
		return m, m.execEffects(m.session.TransportFailed(msg.File, msg.Err.Error()))

	case UploadResultMsg:
		if m.session == nil {
			return m, nil
		}
		if msg.Err != nil {
			return m, m.execEffects(m.session.UploadFailed(msg.File, msg.Err.Error()))
		}
		m.statusText = "Transcribing " + msg.File
		return m, m.execEffects(m.session.UploadAccepted(msg.File))

	case EventMsg:
		if m.session == nil {
			return m, nil
		}
		cmds := []tea.Cmd{m.execEffects(m.session.HandleEvent(msg.Event))}
		if m.client != nil && m.session.File() == msg.File &&
			(m.session.State() == stream.StateConnecting || m.session.State() == stream.StateStreaming) {
			cmds = append(cmds, readEventCmd(m.client, msg.File))
		}
		if m.session.State() == stream.StateCompleted {
			m.statusText = "Transcription complete"
		}
		return m, tea.Batch(cmds...)

	case EventErrorMsg:
		// The socket also breaks when teardown closes it after completion;
		// only a live session treats that as a failure.
		if m.session == nil || m.session.File() != msg.File {
			return m, nil
		}
		state := m.session.State()
		if state != stream.StateConnecting && state != stream.StateStreaming {
			return m, nil
		}
		return m, m.execEffects(m.session.TransportFailed(msg.File, "event stream lost: "+msg.Err.Error()))

	case CompileTickMsg:
		if m.session == nil || m.session.File() != msg.File || msg.Gen != m.sessionGen {
			return m, nil
		}
		m.session.CompileTick(msg.Token)
		return m, nil

	case SummaryResultMsg:
		if m.session == nil {
			return m, nil
		}
		errMsg := ""
		if msg.Err != nil {
			errMsg = msg.Err.Error()
		}
		return m, m.execEffects(m.session.SummaryResult(msg.File, msg.Summary, errMsg))

	case ProbeResultMsg:
		if m.session == nil || m.session.File() != msg.File {
			return m, nil
		}
		if msg.Err != nil {
			m.seeker.Cancel()
			return m, m.transientError("metadata probe failed: " + msg.Err.Error())
		}
		m.clock.Load(msg.Info.Duration)
		if target, ok := m.seeker.Ready(); ok {
			m.clock.Seek(target)
		}
		return m, nil

	case PlaybackTickMsg:
		// A tick from a chain that predates the current play gesture must
		// die here, or a pause/play toggle leaves two chains advancing the
		// clock at double speed.
		if msg.Gen != m.playGen {
			return m, nil
		}
		m.clock.Advance(playbackTick)
		if m.clock.Playing() {
			return m, playbackTickCmd(m.playGen)
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// execEffects turns session effects into commands and view updates.
func (m *Model) execEffects(effects []stream.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case stream.EffectPreCheck:
			cmds = append(cmds, preCheckCmd(m.api, e.File))
		case stream.EffectConnect:
			m.statusText = "Connecting to livecapd"
			cmds = append(cmds, connectCmd(m.cfg.EventAddr, e.File))
		case stream.EffectUpload:
			cmds = append(cmds, uploadCmd(m.api, filepath.Join(m.dir, e.File), e.File))
		case stream.EffectTeardown:
			if m.client != nil {
				m.client.Close()
				m.client = nil
			}
		case stream.EffectScheduleCompile:
			cmds = append(cmds, compileTickCmd(m.session.File(), m.sessionGen, e.Token, e.Delay))
		case stream.EffectRequestSummary:
			cmds = append(cmds, summaryCmd(m.api, e.File))
		case stream.EffectApplySummary:
			m.applySummary(e.Summary)
		case stream.EffectStatus:
			cmds = append(cmds, m.transientError(e.Text))
		}
	}
	return tea.Batch(cmds...)
}

// applySummary installs new summary content. The version always moves
// forward, so views invalidated by a resummarize never show stale state.
func (m *Model) applySummary(text string) {
	version := m.summaryState.Set(text)
	m.outline = summary.ParseOutline(text)
	if m.graphView.ContentChanged(version) {
		m.fitGraph()
	}
	m.refreshSummaryViewport()
}

// fitGraph performs a fresh fit-to-content layout.
func (m *Model) fitGraph() {
	m.transform = summary.Transform{
		Depth: summary.FitDepth(m.outline, m.contentHeight()-2),
	}
}

// toggleGraphVisible hides or shows the summary graph. Hiding captures the
// current transform; showing restores it only when the content version is
// unchanged, otherwise it fits to the new content.
func (m *Model) toggleGraphVisible() {
	if m.graphView.Visible() {
		m.graphView.Hide(m.transform)
		return
	}
	m.graphView.Show()
	if saved, ok := m.graphView.LayoutComplete(); ok {
		m.transform = saved
	} else {
		m.fitGraph()
	}
}

// selectFile supersedes the current session and starts a new one for the
// file under the cursor.
func (m *Model) selectFile(file string) tea.Cmd {
	var cmds []tea.Cmd
	if m.session != nil {
		cmds = append(cmds, m.execEffects(m.session.Supersede()))
	}

	m.store = subtitle.NewStore()
	m.compiler = subtitle.NewCompiler(m.store, m.cfg.Debounce())
	m.session = stream.New(file, m.store, m.compiler)
	m.sessionGen++

	m.clock = player.NewClock()
	m.seeker.Cancel()
	if m.deepLink != "" {
		if target, err := deeplink.ParseFragment(m.deepLink); err == nil {
			m.seeker.Defer(target)
		}
	}

	m.applySummary("")
	m.statusText = "Checking " + file
	m.errorMessage = ""

	cmds = append(cmds,
		m.execEffects(m.session.Start()),
		probeCmd(filepath.Join(m.dir, file), file),
	)
	return tea.Batch(cmds...)
}

func (m *Model) transientError(text string) tea.Cmd {
	m.errorMessage = text
	m.errorTransient = true
	return clearTransientErrorCmd()
}

// activeCaption returns the cue under the playback position.
func (m Model) activeCaption() (subtitle.Cue, bool) {
	if m.session == nil {
		return subtitle.Cue{}, false
	}
	return m.session.Track().ActiveAt(m.clock.Position())
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		if m.client != nil {
			m.client.Close()
		}
		return m, tea.Quit

	case KeySpace:
		if m.session == nil {
			return m, nil
		}
		if m.clock.Toggle() {
			m.playGen++
			return m, playbackTickCmd(m.playGen)
		}
		return m, nil

	case KeyTab:
		m.focus = (m.focus + 1) % 3
		return m, nil

	case KeyEnter:
		if m.focus == FocusFiles && m.fileIndex < len(m.files) {
			return m, m.selectFile(m.files[m.fileIndex])
		}
		return m, nil

	case KeyDown, KeyJ:
		switch m.focus {
		case FocusFiles:
			if m.fileIndex < len(m.files)-1 {
				m.fileIndex++
			}
		case FocusSummary:
			if m.summaryState.Active() == summary.ViewGraph {
				m.transform.Y++
			} else {
				m.viewport.LineDown(1)
			}
		}
		return m, nil

	case KeyUp, KeyK:
		switch m.focus {
		case FocusFiles:
			if m.fileIndex > 0 {
				m.fileIndex--
			}
		case FocusSummary:
			if m.summaryState.Active() == summary.ViewGraph {
				if m.transform.Y > 0 {
					m.transform.Y--
				}
			} else {
				m.viewport.LineUp(1)
			}
		}
		return m, nil

	case KeyLeft:
		if m.focus == FocusSummary && m.summaryState.Active() == summary.ViewGraph {
			if m.transform.X > 0 {
				m.transform.X--
			}
			return m, nil
		}
		m.clock.Seek(m.clock.Position() - 5)
		return m, nil

	case KeyRight:
		if m.focus == FocusSummary && m.summaryState.Active() == summary.ViewGraph {
			m.transform.X++
			return m, nil
		}
		m.clock.Seek(m.clock.Position() + 5)
		return m, nil

	case KeyH:
		if m.focus == FocusSummary && m.summaryState.Active() == summary.ViewGraph && m.transform.X > 0 {
			m.transform.X--
		}
		return m, nil

	case KeyL:
		if m.focus == FocusSummary && m.summaryState.Active() == summary.ViewGraph {
			m.transform.X++
		}
		return m, nil

	case KeyToggleCaptions:
		m.captionsOn = !m.captionsOn
		return m, nil

	case KeyToggleSummary:
		m.toggleGraphVisible()
		return m, nil

	case "v":
		next := (m.summaryState.Active() + 1) % 3
		m.summaryState.SetActive(next)
		m.refreshSummaryViewport()
		return m, nil

	case KeyCollapseMore:
		if m.transform.Depth > 0 {
			m.transform.Depth++
		}
		return m, nil

	case KeyCollapseLess:
		if m.transform.Depth > 1 {
			m.transform.Depth--
		}
		return m, nil

	case KeyShareLink:
		if m.session != nil {
			m.statusText = fmt.Sprintf("Link: %s#%s", m.session.File(), deeplink.FormatFragment(m.clock.Position()))
		}
		return m, nil
	}

	return m, nil
}
