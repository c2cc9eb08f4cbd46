package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/internal/handlers"
	"github.com/jwebster45206/room-engine/pkg/action"
	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

const PlaceHolderText = "pickup <hotspot> | use <hotspot> <item> | trigger <hotspot>"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config *ConsoleConfig
	client *http.Client
	teamID uuid.UUID
	actor  string

	rm           *room.Room
	prog         *progress.Progress
	resumed      bool
	activity     []action.ActivityEntry
	seenActivity map[uuid.UUID]struct{}

	feedViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Room selection state
	showRoomModal bool
	rooms         []string
	roomMap       map[string]uuid.UUID
	selectedRoom  int
	loadingRooms  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Live session events from the websocket
	eventChan   chan events.Event
	eventCancel context.CancelFunc
}

type roomsLoadedMsg struct {
	rooms   []string
	roomMap map[string]uuid.UUID
	err     error
}

type runStartedMsg struct {
	rm      *room.Room
	prog    *progress.Progress
	resumed bool
	err     error
}

type actionResultMsg struct {
	response *handlers.ActionResponse
	err      error
}

type sessionEventMsg struct {
	event events.Event
}

type eventStreamDoneMsg struct{}

type copiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	feedPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	actorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, teamID uuid.UUID) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	feedVp := viewport.New(50, 20)
	feedVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	actor := os.Getenv("PLAYER_NAME")
	if actor == "" {
		actor = "player"
	}

	return ConsoleUI{
		config:        cfg,
		client:        client,
		teamID:        teamID,
		actor:         actor,
		seenActivity:  make(map[uuid.UUID]struct{}),
		textarea:      ta,
		feedViewport:  feedVp,
		metaViewport:  metaVp,
		ready:         false,
		showRoomModal: true,
		loadingRooms:  true,
		selectedRoom:  0,
	}
}

func writeInitialContent(rm *room.Room, resumed bool, feedWidth int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ROOM ENGINE") + "\n\n")
	if rm != nil {
		if resumed {
			content.WriteString(fmt.Sprintf("Rejoined your team's run of %s.\n\n", rm.Name))
		} else {
			content.WriteString(fmt.Sprintf("Your team is locked in: %s.\n\n", rm.Name))
		}
	}
	content.WriteString("Type actions below. /hotspots lists what you can interact with.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", feedWidth-6)) + "\n\n")
	return content.String()
}

func writeMetadata(rm *room.Room, prog *progress.Progress, teamID uuid.UUID) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("RUN STATE") + "\n\n")

	content.WriteString("Team ID:\n")
	content.WriteString(teamID.String()[:8] + "...\n\n")

	content.WriteString("Room:\n")
	content.WriteString(rm.Name + "\n\n")

	layout := rm.LayoutForStage(prog.CurrentStageIndex)
	total := rm.ResolveStageCount(layout)
	if total > 0 {
		content.WriteString(fmt.Sprintf("Stage:\n%d of %d\n\n", prog.CurrentStageIndex, total))
	} else {
		content.WriteString(fmt.Sprintf("Stage:\n%d\n\n", prog.CurrentStageIndex))
	}

	content.WriteString("Status:\n")
	content.WriteString(string(prog.Status()) + "\n\n")

	content.WriteString("Inventory:\n")
	keys := prog.Inventory.Values()
	if len(keys) == 0 {
		content.WriteString("Empty\n")
	} else {
		for _, key := range keys {
			content.WriteString("• " + itemName(rm, key) + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /hotspots: Hotspots\n")
	content.WriteString("• /copy: Copy team ID\n")

	return content.String()
}

// itemName resolves an inventory key to its authored display name,
// falling back to the key for items the room no longer defines.
func itemName(rm *room.Room, key string) string {
	for i := range rm.Layouts {
		if item := rm.Layouts[i].ItemByKey(key); item != nil {
			return item.Name
		}
	}
	return key
}

// writeFeedContent builds the activity feed for the current viewport width
func (m *ConsoleUI) writeFeedContent() {
	feedWidth := m.feedViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(writeInitialContent(m.rm, m.resumed, m.feedViewport.Width))

	for _, entry := range m.activity {
		content.WriteString(formatActivityEntry(entry, feedWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.feedViewport.SetContent(content.String())
	m.feedViewport.GotoBottom()
}

func formatActivityEntry(entry action.ActivityEntry, width int) string {
	stamp := promptStyle.Render(entry.Timestamp.Local().Format("15:04:05"))

	prefix := ""
	if entry.Actor != "" {
		prefix = actorStyle.Render(entry.Actor+":") + " "
	}

	wrapWidth := width - 9 // timestamp column
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	title := entry.Title
	switch entry.Type {
	case action.ActivityComplete:
		title = systemStyle.Render(title)
	case action.ActivityTrigger:
		title = userStyle.Render(title)
	}

	return stamp + " " + prefix + wordwrap.String(title, wrapWidth)
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showRoomModal {
		return m.loadRooms()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle room selection modal first
	if m.showRoomModal {
		return m.updateRoomModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to the feed viewport for scrolling and text
		// selection; the component ignores events outside its bounds.
		m.feedViewport, vpCmd = m.feedViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		feedWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - feedWidth - 6

		m.feedViewport.Width = feedWidth - 2
		m.feedViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(feedWidth - 4)

		// Reformat all content for the new width
		m.ready = true
		m.writeFeedContent()
		if m.prog != nil {
			m.metaViewport.SetContent(writeMetadata(m.rm, m.prog, m.teamID))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			req, err := m.parseActionInput(input)
			if err != nil {
				m.appendError(err)
				m.textarea.Reset()
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.writeFeedContent()

			return m, tea.Batch(m.sendAction(req), progressTick())
		}

	case actionResultMsg:
		m.loading = false
		if msg.err != nil {
			m.writeFeedContent()
			m.appendError(msg.err)
		} else {
			m.prog = msg.response.Progress
			m.appendActivity(msg.response.Activity)
			m.writeFeedContent()
			if msg.response.Sound != nil {
				current := m.feedViewport.View()
				cue := loadingStyle.Render("♪ "+msg.response.Sound.URL) + "\n\n"
				m.feedViewport.SetContent(current + cue)
			}
			m.metaViewport.SetContent(writeMetadata(m.rm, m.prog, m.teamID))
		}
		m.feedViewport.GotoBottom()
		return m, nil

	case sessionEventMsg:
		m.applyEvent(msg.event)
		return m, m.waitForEvent()

	case eventStreamDoneMsg:
		current := m.feedViewport.View()
		notice := errorStyle.Render("Live updates disconnected.") + "\n\n"
		m.feedViewport.SetContent(current + notice)
		return m, nil

	case copiedMsg:
		current := m.feedViewport.View()
		var notice string
		if msg.err != nil {
			notice = errorStyle.Render("Copy failed: "+msg.err.Error()) + "\n\n"
		} else {
			notice = systemStyle.Render("Team ID copied to clipboard.") + "\n\n"
		}
		m.feedViewport.SetContent(current + notice)
		m.feedViewport.GotoBottom()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeFeedContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.feedViewport, vpCmd = m.feedViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// parseActionInput turns "use hs_vault_door item_keycard" into a request.
func (m ConsoleUI) parseActionInput(input string) (handlers.ActionRequest, error) {
	fields := strings.Fields(input)

	req := handlers.ActionRequest{TeamID: m.teamID}
	req.Actor = m.actor

	switch fields[0] {
	case action.ActionPickup, action.ActionTrigger:
		if len(fields) != 2 {
			return req, fmt.Errorf("usage: %s <hotspot>", fields[0])
		}
		req.Action = fields[0]
		req.HotspotID = fields[1]
	case action.ActionUse:
		if len(fields) != 3 {
			return req, fmt.Errorf("usage: use <hotspot> <item>")
		}
		req.Action = action.ActionUse
		req.HotspotID = fields[1]
		req.ItemKey = fields[2]
	default:
		return req, fmt.Errorf("unknown action %q (try pickup, use or trigger)", fields[0])
	}

	return req, nil
}

// appendActivity records entries not seen yet. The acting client hears
// about its own action twice, once in the HTTP response and once over
// the websocket, so entries are deduplicated by ID.
func (m *ConsoleUI) appendActivity(entries []action.ActivityEntry) {
	for _, entry := range entries {
		if _, ok := m.seenActivity[entry.ID]; ok {
			continue
		}
		m.seenActivity[entry.ID] = struct{}{}
		m.activity = append(m.activity, entry)
	}
}

func (m *ConsoleUI) appendError(err error) {
	current := m.feedViewport.View()
	errorMsg := errorStyle.Render("Error: "+err.Error()) + "\n\n"
	m.feedViewport.SetContent(current + errorMsg)
	m.feedViewport.GotoBottom()
}

// applyEvent folds a websocket event into local state. This is how a
// teammate's action shows up in this console.
func (m *ConsoleUI) applyEvent(event events.Event) {
	switch event.Type {
	case events.EventTypeSessionUpdated:
		if event.Update != nil && m.prog != nil {
			m.prog.Inventory = progress.NewStringSet(event.Update.Inventory...)
			m.prog.SceneState = event.Update.SceneState
			m.prog.CurrentStageIndex = event.Update.CurrentStageIndex
			m.prog.SolvedStages = event.Update.SolvedStages
			m.prog.CompletedAt = event.Update.CompletedAt
		}
		m.appendActivity(event.Activity)
		m.writeFeedContent()
		m.metaViewport.SetContent(writeMetadata(m.rm, m.prog, m.teamID))

	case events.EventTypeRunCompleted:
		current := m.feedViewport.View()
		banner := systemStyle.Render("The room is solved. Well done!") + "\n\n"
		m.feedViewport.SetContent(current + banner)
		m.feedViewport.GotoBottom()

	case events.EventTypeProgressReset:
		current := m.feedViewport.View()
		notice := errorStyle.Render("This run was reset by an operator.") + "\n\n"
		m.feedViewport.SetContent(current + notice)
		m.feedViewport.GotoBottom()
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /hotspots - List hotspots in the current stage
• /copy - Copy the full team ID to the clipboard
• Ctrl+C - Quit

How to play:
• pickup <hotspot> - Take the item under a hotspot
• use <hotspot> <item> - Use an inventory item on a hotspot
• trigger <hotspot> - Fire a mechanism
`
		current := m.feedViewport.View()
		m.feedViewport.SetContent(current + titleStyle.Render("Help:") + helpText + "\n")
		m.feedViewport.GotoBottom()

	case "/hotspots":
		var text strings.Builder
		text.WriteString(titleStyle.Render("Hotspots:") + "\n")
		layout := m.rm.LayoutForStage(m.prog.CurrentStageIndex)
		if layout == nil || len(layout.Hotspots) == 0 {
			text.WriteString("None in this stage.\n")
		} else {
			for _, hs := range layout.Hotspots {
				if m.prog.SceneState.DisabledHotspotIDs.Has(hs.ID) && !m.prog.SceneState.EnabledHotspotIDs.Has(hs.ID) {
					continue
				}
				text.WriteString(fmt.Sprintf("• %s (%s)\n", hs.ID, hs.Type))
			}
		}
		text.WriteString("\n")

		current := m.feedViewport.View()
		m.feedViewport.SetContent(current + text.String())
		m.feedViewport.GotoBottom()

	case "/copy":
		m.textarea.Reset()
		return m, m.copyTeamID()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendAction(req handlers.ActionRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := postAction(m.client, m.config.APIBaseURL, m.rm.ID, req)
		return actionResultMsg{resp, err}
	}
}

func (m ConsoleUI) loadRooms() tea.Cmd {
	return func() tea.Msg {
		names, roomMap, err := listRooms(m.client, m.config.APIBaseURL)
		return roomsLoadedMsg{names, roomMap, err}
	}
}

func (m ConsoleUI) startRun(roomID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		rm, err := getRoom(m.client, m.config.APIBaseURL, roomID)
		if err != nil {
			return runStartedMsg{err: err}
		}
		prog, resumed, err := createProgress(m.client, m.config.APIBaseURL, m.teamID, roomID)
		if err != nil {
			return runStartedMsg{err: err}
		}
		return runStartedMsg{rm: rm, prog: prog, resumed: resumed}
	}
}

func (m ConsoleUI) copyTeamID() tea.Cmd {
	teamID := m.teamID.String()
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(teamID)}
	}
}

// waitForEvent pulls the next websocket event off the stream channel.
func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eventChan
		if !ok {
			return eventStreamDoneMsg{}
		}
		return sessionEventMsg{event}
	}
}

func (m ConsoleUI) updateRoomModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case roomsLoadedMsg:
		m.loadingRooms = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.rooms = msg.rooms
			m.roomMap = msg.roomMap
		}

	case runStartedMsg:
		// Regardless of outcome, we're no longer in the start-run loading phase
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.rm = msg.rm
			m.prog = msg.prog
			m.resumed = msg.resumed
			m.showRoomModal = false
			if m.width > 0 && m.height > 0 {
				feedWidth := int(float64(m.width)*0.75) - 4
				metaWidth := m.width - feedWidth - 6
				m.feedViewport.Width = feedWidth - 2
				m.feedViewport.Height = m.height - 7
				m.metaViewport.Width = metaWidth - 2
				m.metaViewport.Height = m.height - 4
				m.textarea.SetWidth(feedWidth - 4)
			}
			m.feedViewport.SetContent(writeInitialContent(m.rm, msg.resumed, m.feedViewport.Width))
			m.metaViewport.SetContent(writeMetadata(m.rm, m.prog, m.teamID))
			m.textarea.Focus() // Ensure textarea gets focus when modal closes
			m.ready = true

			// Start the live event stream for this run
			ctx, cancel := context.WithCancel(context.Background())
			m.eventCancel = cancel
			eventChan := make(chan events.Event, 8)
			m.eventChan = eventChan
			go func() {
				_ = listenToEvents(ctx, m.config.APIBaseURL, m.teamID, m.rm.ID, eventChan)
				close(eventChan)
			}()
			return m, tea.Batch(textarea.Blink, m.waitForEvent())
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingRooms {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				m.showQuitModal = true
				return m, nil
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedRoom > 0 {
				m.selectedRoom--
			}
		case tea.KeyDown:
			if m.selectedRoom < len(m.rooms)-1 {
				m.selectedRoom++
			}
		case tea.KeyEnter:
			if len(m.rooms) > 0 {
				roomName := m.rooms[m.selectedRoom]
				roomID := m.roomMap[roomName]
				m.loading = true
				return m, m.startRun(roomID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				if m.showRoomModal {
					// We're in room selection, no need to focus textarea
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	if m.eventCancel != nil {
		m.eventCancel()
	}
	return m, tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave Room?"))
	content.WriteString("\n\n")
	content.WriteString("Your team's progress is saved. Rejoin any time with the same team ID.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderRoomModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingRooms {
		content.WriteString(modalTitleStyle.Render("Loading Rooms..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available rooms..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load rooms: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Starting Run..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Locking your team in..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Room"))
		content.WriteString("\n\n")

		for i, name := range m.rooms {
			if i == m.selectedRoom {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showRoomModal {
		return m.renderRoomModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	feedWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - feedWidth - 6

	feedPanel := feedPanelStyle.Width(feedWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.feedViewport.View(),
			"", // Add empty line for spacing
			separatorStyle.Render(strings.Repeat("─", feedWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, feedPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.feedViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
