package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oreline/oreline/internal/config"
	"github.com/oreline/oreline/internal/engine"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/repository"
	"github.com/oreline/oreline/internal/tui/components"
	"github.com/oreline/oreline/internal/tui/views/factory"
	"github.com/oreline/oreline/internal/tui/views/production"
	"github.com/oreline/oreline/internal/util"
)

// Version information
var (
	Version   = "0.1.0"
	BuildTime = "development"
)

// MaxContentWidth is the maximum width for the main content area.
const MaxContentWidth = 120

// saveTimeout bounds a single save to the database.
const saveTimeout = 10 * time.Second

// Bounds for the +/- speed keys.
const (
	minSpeed = 0.25
	maxSpeed = 64
)

// Module represents a TUI module/screen.
type Module string

const (
	ModuleDashboard  Module = "dashboard"
	ModuleInventory  Module = "inventory"
	ModuleNodes      Module = "nodes"
	ModuleMachines   Module = "machines"
	ModuleCrafting   Module = "crafting"
	ModuleMilestones Module = "milestones"
	ModuleBuild      Module = "build"
	ModuleHelp       Module = "help"
)

// Deps holds everything the App drives.
type Deps struct {
	Engine *engine.Engine
	// Saves may be nil, which disables saving.
	Saves  *repository.SaveRepository
	Slot   string
	Config *config.Config
	Logger *slog.Logger
}

// App is the main TUI application model.
type App struct {
	engine *engine.Engine
	saves  *repository.SaveRepository
	slot   string
	config *config.Config
	logger *slog.Logger

	theme *Theme
	keys  KeyMap

	width    int
	height   int
	ready    bool
	quitting bool

	showConfirm    bool
	currentModule  Module
	previousModule Module

	inventoryView  *factory.InventoryView
	nodesView      *factory.NodesView
	machinesView   *factory.MachinesView
	craftingView   *production.CraftingView
	milestonesView *production.MilestonesView
	buildView      *production.BuildView

	alerts      []Alert
	lastSummary engine.TickSummary
	lastSave    time.Time
	saving      bool

	eventsMu sync.Mutex
	events   []models.Event
}

// Alert represents a system alert.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel defines alert severity.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

// tickMsg drives the simulation and refreshes the screen.
type tickMsg time.Time

// savedMsg reports the outcome of a save.
type savedMsg struct {
	err  error
	auto bool
	at   time.Time
}

// New creates a new App instance. Engine events reach the alert bar only
// after Attach; Run does that itself.
func New(deps Deps) *App {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	theme := NewTheme(cfg.Display.ColorScheme)
	styles := theme.Styles()
	eng := deps.Engine

	a := &App{
		engine:         eng,
		saves:          deps.Saves,
		slot:           deps.Slot,
		config:         cfg,
		logger:         logger,
		theme:          theme,
		keys:           DefaultKeyMap(),
		currentModule:  ModuleDashboard,
		previousModule: ModuleDashboard,
		inventoryView:  factory.NewInventoryView(eng),
		nodesView:      factory.NewNodesView(eng),
		machinesView:   factory.NewMachinesView(eng),
		craftingView:   production.NewCraftingView(eng),
		milestonesView: production.NewMilestonesView(eng),
		buildView:      production.NewBuildView(eng),
		alerts:         []Alert{},
		lastSave:       time.Now(),
	}

	a.inventoryView.SetStyles(styles)
	a.nodesView.SetStyles(styles)
	a.machinesView.SetStyles(styles)
	a.craftingView.SetStyles(styles)
	a.milestonesView.SetStyles(styles)
	a.buildView.SetStyles(styles)

	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.tickCmd()
}

// tickCmd schedules the next simulation tick.
func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.config.Simulation.TickInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// onEvent buffers engine events until the next Update.
func (a *App) onEvent(ev models.Event) {
	a.eventsMu.Lock()
	a.events = append(a.events, ev)
	a.eventsMu.Unlock()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		model, cmd := a.handleKeyPress(msg)
		a.drainEvents()
		a.refreshCurrent()
		return model, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.refreshCurrent()

	case tickMsg:
		if a.config.Simulation.Enabled {
			a.lastSummary = a.engine.Sync()
		}
		a.drainEvents()
		a.refreshCurrent()
		if cmd := a.maybeAutosave(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, a.tickCmd())

	case savedMsg:
		a.saving = false
		if msg.err != nil {
			a.logger.Error("save failed", "slot", a.slot, "error", msg.err)
			a.AddAlert(AlertCritical, "Save failed: "+msg.err.Error())
			break
		}
		a.lastSave = msg.at
		if !msg.auto {
			a.AddAlert(AlertInfo, fmt.Sprintf("Game saved to slot %q", a.slot))
		}
	}

	return a, tea.Batch(cmds...)
}

// drainEvents turns buffered engine events into alerts.
func (a *App) drainEvents() {
	a.eventsMu.Lock()
	events := a.events
	a.events = nil
	a.eventsMu.Unlock()

	cat := a.engine.Catalog()
	for _, ev := range events {
		switch ev.Type {
		case models.EventNodeDiscovered:
			if n, ok := a.engine.Node(ev.NodeID); ok {
				a.AddAlert(AlertInfo, fmt.Sprintf("Discovered %s at (%d,%d)", cat.Name(n.Type), n.Position.X, n.Position.Y))
			}
		case models.EventNodeDepleted:
			a.AddAlert(AlertWarning, fmt.Sprintf("Node %s depleted", util.ShortID(ev.NodeID)))
		case models.EventCraftCompleted:
			a.AddAlert(AlertInfo, fmt.Sprintf("Crafted %g x %s", ev.Amount, cat.Name(ev.ItemID)))
		case models.EventCraftHalted:
			a.AddAlert(AlertWarning, fmt.Sprintf("%s halted after %g units: not enough input", cat.Name(ev.ItemID), ev.Amount))
		case models.EventMilestoneComplete:
			a.AddAlert(AlertInfo, "Milestone complete: "+a.milestoneName(ev.MilestoneID))
		case models.EventMachineBuilt:
			a.AddAlert(AlertInfo, "Built "+cat.Name(ev.ItemID))
		case models.EventMachinePlaced:
			if m, ok := a.engine.Machine(ev.MachineID); ok {
				a.AddAlert(AlertInfo, "Placed "+cat.Name(m.Type))
			}
		}
	}
}

func (a *App) milestoneName(id string) string {
	for _, m := range a.engine.Milestones() {
		if m.ID == id {
			return m.Name
		}
	}
	return id
}

// refreshCurrent reloads the data behind the visible module.
func (a *App) refreshCurrent() {
	switch a.currentModule {
	case ModuleInventory:
		a.inventoryView.Refresh()
	case ModuleNodes:
		a.nodesView.Refresh()
	case ModuleMachines:
		a.machinesView.Refresh()
	case ModuleCrafting:
		a.craftingView.Refresh()
	case ModuleMilestones:
		a.milestonesView.Refresh()
	case ModuleBuild:
		a.buildView.Refresh()
	}
}

// maybeAutosave starts a background save when the autosave interval has passed.
func (a *App) maybeAutosave() tea.Cmd {
	interval := a.config.Database.AutosaveInterval()
	if a.saves == nil || interval <= 0 || a.saving || time.Since(a.lastSave) < interval {
		return nil
	}
	return a.saveCmd(true)
}

// saveCmd snapshots the engine now and writes the snapshot in the background.
func (a *App) saveCmd(auto bool) tea.Cmd {
	if a.saves == nil {
		a.AddAlert(AlertWarning, "Saving is disabled")
		return nil
	}
	a.saving = true
	snap := a.engine.Snapshot()
	repo, slot := a.saves, a.slot

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		err := repo.Save(ctx, nil, slot, snap)
		return savedMsg{err: err, auto: auto, at: time.Now()}
	}
}

// handleKeyPress processes keyboard input.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle confirmation dialog
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
		}
		return a, nil
	}

	// The crafting form captures every key while open
	if a.currentModule == ModuleCrafting && a.craftingView.FormOpen() {
		return a.handleFormKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	if module, ok := a.keys.FunctionKeyModule(msg); ok {
		a.switchModule(module)
		return a, nil
	}

	switch {
	case a.keys.Save.Matches(msg):
		return a, a.saveCmd(false)
	case a.keys.Pause.Matches(msg):
		a.togglePause()
		return a, nil
	case a.keys.Faster.Matches(msg):
		a.changeSpeed(2)
		return a, nil
	case a.keys.Slower.Matches(msg):
		a.changeSpeed(0.5)
		return a, nil
	case a.keys.Back.Matches(msg):
		if a.currentModule == ModuleHelp {
			a.currentModule = a.previousModule
		} else if a.currentModule != ModuleDashboard {
			a.currentModule = ModuleDashboard
		}
		return a, nil
	}

	switch a.currentModule {
	case ModuleInventory:
		a.handleInventoryKeys(msg)
	case ModuleNodes:
		a.handleNodeKeys(msg)
	case ModuleMachines:
		a.handleMachineKeys(msg)
	case ModuleCrafting:
		a.handleCraftingKeys(msg)
	case ModuleMilestones:
		a.handleMilestoneKeys(msg)
	case ModuleBuild:
		a.handleBuildKeys(msg)
	}

	return a, nil
}

func (a *App) switchModule(module Module) {
	if module == ModuleHelp && a.currentModule != ModuleHelp {
		a.previousModule = a.currentModule
	}
	a.currentModule = module
	a.refreshCurrent()
}

func (a *App) togglePause() {
	clock := a.engine.Clock()
	if clock.IsPaused() {
		clock.Resume()
		a.AddAlert(AlertInfo, "Simulation resumed")
		return
	}
	clock.Pause()
	a.AddAlert(AlertInfo, "Simulation paused")
}

// changeSpeed scales the game clock by factor within [minSpeed, maxSpeed].
func (a *App) changeSpeed(factor float64) {
	clock := a.engine.Clock()
	scale := min(max(clock.TimeScale()*factor, minSpeed), maxSpeed)
	if scale == clock.TimeScale() {
		return
	}
	clock.SetTimeScale(scale)
	a.AddAlert(AlertInfo, fmt.Sprintf("Speed %gx", scale))
}

// fail reports a rejected action in the alert bar.
func (a *App) fail(err error) {
	a.logger.Debug("action rejected", "module", a.currentModule, "error", err)
	a.AddAlert(AlertWarning, err.Error())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Oreline shutting down. The machines keep running.")
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := ContentHeight(a.height, 6)
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("ORELINE v%s", Version)

	info := fmt.Sprintf("%s | T+%s | TICK %d",
		a.engine.Name(),
		util.FormatElapsed(a.engine.Clock().Elapsed()),
		a.engine.LastTick(),
	)

	spacing := max(a.width-lipgloss.Width(title)-lipgloss.Width(info)-4, 1)

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderAlertBar renders the most recent alert.
func (a *App) renderAlertBar() string {
	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	} else {
		alertText = a.theme.Muted.Render("All machines nominal")
	}

	status := "RUN"
	if a.engine.Clock().IsPaused() {
		status = "PAUSE"
	}

	return a.theme.StatusKey.Render(status) + a.theme.Muted.Render(" │ ") + alertText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	contentWidth := min(a.width, MaxContentWidth)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	contentStyle := lipgloss.NewStyle().Width(contentWidth)

	return style.Render(contentStyle.Render(a.moduleContent(contentWidth, height)))
}

// moduleContent returns the content for the current module.
func (a *App) moduleContent(width, height int) string {
	switch a.currentModule {
	case ModuleInventory:
		return a.inventoryView.Render(width, height)
	case ModuleNodes:
		return a.nodesView.Render(width, height)
	case ModuleMachines:
		return a.machinesView.Render(width, height)
	case ModuleCrafting:
		return a.craftingView.Render(width, height)
	case ModuleMilestones:
		return a.milestonesView.Render(width, height)
	case ModuleBuild:
		return a.buildView.Render(width, height)
	case ModuleHelp:
		return a.renderHelp()
	default:
		return a.renderDashboard(width)
	}
}

// renderDashboard renders the factory overview.
func (a *App) renderDashboard(width int) string {
	clock := a.engine.Clock()
	panelWidth := 40
	if width < 2*panelWidth+2 {
		panelWidth = max(width, 24)
	}

	status := a.theme.Value.Render("RUNNING")
	if clock.IsPaused() {
		status = a.theme.Warning.Render("PAUSED")
	}

	factoryPanel := a.theme.Panel("FACTORY", strings.Join([]string{
		a.line("Name", a.engine.Name()),
		a.line("Seed", fmt.Sprintf("%d", a.engine.Seed())),
		a.line("Elapsed", util.FormatElapsed(clock.Elapsed())),
		a.line("Tick", fmt.Sprintf("%d", a.engine.LastTick())),
		a.theme.Label.Render(fmt.Sprintf("%-10s", "Status")) + status,
		a.line("Speed", fmt.Sprintf("%gx", clock.TimeScale())),
	}, "\n"), panelWidth)

	placed := a.engine.Machines()
	active := 0
	for _, p := range a.engine.CraftingQueue() {
		if p.Status.IsActive() {
			active++
		}
	}
	productionPanel := a.theme.Panel("PRODUCTION", strings.Join([]string{
		a.line("Machines", fmt.Sprintf("%d placed", len(placed))),
		a.line("Crafting", fmt.Sprintf("%d active", active)),
		a.line("Nodes", fmt.Sprintf("%d/%d discovered", len(a.engine.DiscoveredNodes()), len(a.engine.Nodes()))),
		a.line("Last sync", a.summaryText()),
	}, "\n"), panelWidth)

	milestonePanel := a.theme.Panel("MILESTONE", a.renderMilestoneSummary(panelWidth-24), panelWidth)

	saveText := "disabled"
	if a.saves != nil {
		saveText = fmt.Sprintf("slot %q, last %s", a.slot, a.lastSave.Format("15:04:05"))
	}
	savePanel := a.theme.Panel("SAVE", a.line("Save", saveText), panelWidth)

	var b strings.Builder
	b.WriteString(a.theme.Title.Render("═══ FACTORY OVERVIEW ═══"))
	b.WriteString("\n\n")
	b.WriteString(SideBySide(factoryPanel, productionPanel, width, 2))
	b.WriteString("\n")
	b.WriteString(SideBySide(milestonePanel, savePanel, width, 2))
	return b.String()
}

func (a *App) line(label, value string) string {
	return a.theme.Label.Render(fmt.Sprintf("%-10s", label)) + a.theme.Value.Render(value)
}

func (a *App) summaryText() string {
	s := a.lastSummary
	if s.Applied == 0 {
		return "idle"
	}
	return fmt.Sprintf("%d ticks, +%g items", s.Applied, s.Produced.Total())
}

func (a *App) renderMilestoneSummary(maxBar int) string {
	m, ok := a.engine.CurrentMilestone()
	if !ok {
		return a.theme.Value.Render("All milestones complete")
	}

	barWidth := a.config.Display.ProgressBarWidth
	if barWidth <= 0 {
		barWidth = 16
	}
	barWidth = max(min(barWidth, maxBar), 6)

	lines := []string{a.theme.Title.Render(m.Name)}
	styles := a.theme.Styles()
	for _, p := range a.engine.MilestoneProgress() {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			a.theme.Label.Render(fmt.Sprintf("%-12s", Truncate(p.Name, 12))),
			components.ProgressBar(styles, p.Fraction(), barWidth),
			a.theme.Value.Render(fmt.Sprintf("%g/%g", min(p.Current, p.Required), p.Required)),
		))
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Header.Render("NAVIGATION"))
	b.WriteString("\n\n")

	navItems := [][2]string{
		{"F1", "Help"},
		{"F2", "Dashboard"},
		{"F3", "Inventory"},
		{"F4", "Resource Nodes"},
		{"F5", "Machines"},
		{"F6", "Crafting Queue"},
		{"F7", "Milestones"},
		{"F8", "Build Machines"},
		{"F10", "Quit"},
	}
	a.writeHelpItems(&b, navItems)

	b.WriteString("\n")
	b.WriteString(a.theme.Header.Render("CONTROLS"))
	b.WriteString("\n\n")

	ctrlItems := [][2]string{
		{"Up/Down", "Move selection"},
		{"w/a/s/d", "Walk (Nodes)"},
		{"m", "Mine by hand (Nodes)"},
		{"p", "Place miner / pause machine or craft"},
		{"r", "Cycle recipe (Machines)"},
		{"n", "New craft or processor"},
		{"Enter", "Build / complete milestone"},
		{"Ctrl+S", "Save"},
		{"Ctrl+P", "Pause simulation"},
		{"+/-", "Change speed"},
		{"Esc", "Back/Cancel"},
	}
	a.writeHelpItems(&b, ctrlItems)

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

func (a *App) writeHelpItems(b *strings.Builder, items [][2]string) {
	for _, item := range items {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}
}

// renderConfirmDialog renders the quit confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Primary.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	return a.theme.DrawHorizontalLine(a.width) + "\n" + a.theme.Footer.Render(a.keys.StatusBarHelp(a.width))
}

// CurrentModule returns the visible module.
func (a *App) CurrentModule() Module {
	return a.currentModule
}

// Alerts returns the current alerts, newest first.
func (a *App) Alerts() []Alert {
	return a.alerts
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = []Alert{}
}

// Attach subscribes the App to engine events and returns the unsubscribe function.
func (a *App) Attach() func() {
	return a.engine.Subscribe(a.onEvent)
}

// Run starts the TUI application and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	app := New(deps)
	detach := app.Attach()
	defer detach()

	p := tea.NewProgram(app, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
