package session

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/craftrelay/backend/internal/adapter"
)

// ErrNotConnected rejects operations that need a live session.
var ErrNotConnected = errors.New("bot is not connected")

// Publisher is the fan-out point for session events. Implementations must
// not block the caller; slow subscribers are the publisher's problem.
type Publisher interface {
	PublishStatus(Status)
	PublishChat(ChatMessage)
	PublishPlayers([]PlayerRecord)
	PublishVitals(VitalsSnapshot)
	PublishError(string)
}

// Options wires a Machine. Factory, Store and Publisher are required; the
// rest default to production values.
type Options struct {
	Factory   adapter.Factory
	Store     *Store
	Publisher Publisher
	Clock     Clock

	// Defaults fills status payloads before any connect request arrives
	// and backfills missing fields of connect requests.
	Defaults adapter.Config

	// ThrottleDetector overrides the vanilla throttle-message heuristic.
	ThrottleDetector ThrottleDetector

	// Privileged overrides elevated-capability detection for admin
	// actions. The default treats game-mode visibility as the signal.
	Privileged func() bool

	RosterInterval time.Duration
	VitalsInterval time.Duration
	WarmupDelay    time.Duration
}

// Machine owns the at-most-one live adapter and is the only component that
// creates or destroys adapter instances. All state transitions are
// linearized by its mutex; adapter events are applied in arrival order by a
// single pump goroutine per adapter instance.
type Machine struct {
	mu sync.Mutex

	factory    adapter.Factory
	store      *Store
	pub        Publisher
	clock      Clock
	defaults   adapter.Config
	privileged func() bool
	now        func() time.Time

	state      State
	adapter    adapter.Adapter
	lastConfig *adapter.Config
	recon      *reconnector
	poll       *poller

	// gen identifies the current adapter instance. Events and timer fires
	// that carry a stale generation are dropped, which makes superseded
	// adapters no-ops even if their goroutines fire late.
	gen uint64
}

func NewMachine(opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.RosterInterval <= 0 {
		opts.RosterInterval = 30 * time.Second
	}
	if opts.VitalsInterval <= 0 {
		opts.VitalsInterval = 2 * time.Second
	}
	if opts.WarmupDelay <= 0 {
		opts.WarmupDelay = 2 * time.Second
	}
	m := &Machine{
		factory:    opts.Factory,
		store:      opts.Store,
		pub:        opts.Publisher,
		clock:      opts.Clock,
		defaults:   opts.Defaults,
		privileged: opts.Privileged,
		now:        time.Now,
		recon:      newReconnector(opts.ThrottleDetector),
	}
	if m.privileged == nil {
		m.privileged = m.gameModeVisible
	}
	m.poll = &poller{
		clock:          opts.Clock,
		rosterInterval: opts.RosterInterval,
		vitalsInterval: opts.VitalsInterval,
		warmupDelay:    opts.WarmupDelay,
		refreshRoster:  m.pollRoster,
		refreshVitals:  m.pollVitals,
	}
	m.store.SetStatus(m.statusFrom(Disconnected))
	return m
}

// Connect tears down any live session and starts a new one with cfg.
// Missing fields are backfilled from the configured defaults. A validation
// failure is returned synchronously and never retried.
func (m *Machine) Connect(cfg adapter.Config) error {
	cfg = m.fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.recon.cancelPending()
	m.recon.manual = false
	m.recon.reset()

	if m.adapter != nil {
		m.teardownLocked()
	}
	m.lastConfig = &cfg

	if err := m.connectLocked(); err != nil {
		m.state = Disconnected
		m.emitStatusLocked()
		return err
	}
	return nil
}

// Disconnect ends the session and suppresses reconnection. Idempotent:
// calling it twice, or while already Disconnected, is a no-op.
func (m *Machine) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recon.cancelPending()
	m.recon.manual = true
	m.recon.reset()

	if m.state == Disconnected && m.adapter == nil {
		return
	}

	m.teardownLocked()
	m.state = Disconnected
	m.emitStatusLocked()
}

// SendChat forwards a chat line to the live adapter.
func (m *Machine) SendChat(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected || m.adapter == nil {
		return ErrNotConnected
	}
	return m.adapter.SendChat(text)
}

// RefreshPlayers re-derives the roster immediately. While not connected it
// publishes the empty roster so viewers converge on the same value.
func (m *Machine) RefreshPlayers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Connected && m.adapter != nil {
		m.refreshRosterLocked()
		return
	}
	m.pub.PublishPlayers([]PlayerRecord{})
}

// RefreshVitals re-samples vitals immediately, or publishes the empty
// snapshot while not connected.
func (m *Machine) RefreshVitals() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Connected && m.adapter != nil {
		m.refreshVitalsLocked()
		return
	}
	m.pub.PublishVitals(emptyVitals())
}

// Status returns the current status payload.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusFrom(m.state)
}

// CurrentState returns the session state.
func (m *Machine) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// fillDefaults backfills absent connect-request fields from the configured
// default server.
func (m *Machine) fillDefaults(cfg adapter.Config) adapter.Config {
	if cfg.Host == "" {
		cfg.Host = m.defaults.Host
	}
	if cfg.Port == 0 {
		cfg.Port = m.defaults.Port
	}
	if cfg.Username == "" {
		cfg.Username = m.defaults.Username
	}
	if cfg.Password == "" {
		cfg.Password = m.defaults.Password
	}
	if cfg.Auth == "" {
		cfg.Auth = m.defaults.Auth
	}
	if cfg.Auth == "" {
		cfg.Auth = adapter.AuthOffline
	}
	return cfg
}

// connectLocked instantiates the adapter for lastConfig and enters
// Connecting. On construction failure it publishes an error notice and
// leaves state handling to the caller (manual connects fail fast, scheduled
// retries fold the failure back into the scheduler).
func (m *Machine) connectLocked() error {
	cfg := *m.lastConfig
	log.Printf("Connecting to %s as %s (auth=%s)", cfg.Addr(), cfg.Username, cfg.Auth)

	a, err := m.factory(cfg)
	if err != nil {
		log.Printf("adapter construction failed: %v", err)
		m.pub.PublishError("Failed to connect bot: " + err.Error())
		return err
	}

	m.adapter = a
	m.gen++
	m.state = Connecting
	m.emitStatusLocked()
	go m.pump(a.Events(), m.gen)
	return nil
}

// teardownLocked destroys the live adapter and resets session-scoped data.
// Roster and vitals go back to their empty values and are re-broadcast so
// every viewer converges.
func (m *Machine) teardownLocked() {
	m.poll.stop()
	if m.adapter != nil {
		m.adapter.Close()
		m.adapter = nil
	}
	m.gen++
	m.store.ClearSessionData()
	m.pub.PublishPlayers([]PlayerRecord{})
	m.pub.PublishVitals(emptyVitals())
}

// pump applies adapter events in arrival order. One pump goroutine exists
// per adapter instance; it exits when the adapter closes its event channel.
func (m *Machine) pump(events <-chan adapter.Event, gen uint64) {
	for ev := range events {
		m.handleEvent(gen, ev)
	}
}

func (m *Machine) handleEvent(gen uint64, ev adapter.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	switch ev.Kind {
	case adapter.Login:
		m.handleLoginLocked()
	case adapter.End:
		m.handleEndLocked()
	case adapter.Kicked:
		m.handleKickedLocked(ev.Reason)
	case adapter.ErrorEvent:
		m.handleErrorLocked(ev.Err)
	case adapter.Chat:
		m.appendChatLocked(ChatMessage{Text: ev.Text, Timestamp: m.now()})
	case adapter.PlayerJoined:
		m.appendChatLocked(ChatMessage{
			Text:      "Player joined: " + ev.Player.Username,
			Timestamp: m.now(),
			IsSystem:  true,
			Category:  CategoryJoin,
		})
		m.refreshRosterLocked()
	case adapter.PlayerLeft:
		m.appendChatLocked(ChatMessage{
			Text:      "Player left: " + ev.Player.Username,
			Timestamp: m.now(),
			IsSystem:  true,
			Category:  CategoryLeave,
		})
		m.refreshRosterLocked()
	case adapter.Died:
		m.appendChatLocked(ChatMessage{
			Text:      "Bot died and will respawn",
			Timestamp: m.now(),
			IsSystem:  true,
			Category:  CategoryDeath,
		})
		m.refreshVitalsLocked()
	case adapter.HealthChanged, adapter.GameChanged, adapter.ExperienceChanged,
		adapter.Spawned, adapter.SleepStarted, adapter.WokeUp:
		m.refreshVitalsLocked()
	}
}

func (m *Machine) handleLoginLocked() {
	m.state = Connected
	m.recon.reset()

	username := m.statusFrom(m.state).Username
	log.Printf("Bot logged in as %s", username)

	m.poll.start()
	m.emitStatusLocked()
	m.appendChatLocked(ChatMessage{
		Text:      "Bot successfully connected to server as " + username,
		Timestamp: m.now(),
	})
}

// handleEndLocked processes an adapter end event. Cleanup is identical for
// manual and unexpected ends; only the unexpected path hands off to the
// reconnection scheduler.
func (m *Machine) handleEndLocked() {
	log.Println("Bot disconnected")
	m.teardownLocked()

	if m.recon.manual || m.lastConfig == nil {
		m.state = Disconnected
		m.emitStatusLocked()
		return
	}

	m.state = Reconnecting
	m.emitStatusLocked()
	m.scheduleRetryLocked()
}

// handleKickedLocked records the kick reason for the scheduler to consult
// once the subsequent end event fires. Kicks are not transitions themselves.
func (m *Machine) handleKickedLocked(reason string) {
	m.recon.lastReason = reason
	text := reasonText(reason)
	log.Printf("Bot was kicked: %s", text)
	m.appendChatLocked(ChatMessage{
		Text:      "Bot was kicked from server: " + text,
		Timestamp: m.now(),
	})
}

// handleErrorLocked surfaces an adapter error as a non-fatal notice.
// Errors precede an end event; they are never transitions themselves.
func (m *Machine) handleErrorLocked(err error) {
	if err == nil {
		return
	}
	log.Printf("Bot error: %v", err)
	m.pub.PublishError(err.Error())
	m.appendChatLocked(ChatMessage{
		Text:      "Bot error: " + err.Error(),
		Timestamp: m.now(),
	})
}

// scheduleRetryLocked computes the next delay and arms the single pending
// retry timer. Any previously pending timer is cancelled first.
func (m *Machine) scheduleRetryLocked() {
	m.recon.cancelPending()
	delay := m.recon.nextDelay()
	attempt := m.recon.attempts

	secs := int((delay + time.Second/2) / time.Second)
	log.Printf("Scheduling reconnect in %d seconds (attempt #%d)", secs, attempt)
	m.appendChatLocked(ChatMessage{
		Text:      fmt.Sprintf("Bot disconnected. Will attempt to reconnect in %d seconds (Attempt #%d)", secs, attempt),
		Timestamp: m.now(),
	})

	m.recon.pending = m.clock.After(delay, m.retryFire)
}

// retryFire runs when the pending retry timer fires. A manual connect or
// disconnect in the meantime has already cancelled the timer or flipped the
// state, making this a no-op. A construction failure counts as another
// unexpected end and reschedules; there is no maximum attempt count.
func (m *Machine) retryFire() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Reconnecting || m.recon.manual || m.lastConfig == nil {
		return
	}
	m.recon.pending = nil

	log.Printf("Attempting to reconnect (attempt #%d)", m.recon.attempts)
	if err := m.connectLocked(); err != nil {
		m.state = Reconnecting
		m.scheduleRetryLocked()
	}
}

// statusFrom builds the status payload for a given state, falling back from
// the live adapter to the last config to the defaults for identity fields.
func (m *Machine) statusFrom(state State) Status {
	st := Status{
		Connected:  state == Connected,
		Connecting: state == Connecting,
	}
	switch {
	case m.adapter != nil:
		st.Username = m.adapter.Username()
	case m.lastConfig != nil:
		st.Username = m.lastConfig.Username
	default:
		st.Username = m.defaults.Username
	}
	if m.lastConfig != nil {
		st.Server = m.lastConfig.Addr()
	} else {
		st.Server = m.defaults.Addr()
	}
	return st
}

func (m *Machine) emitStatusLocked() {
	st := m.statusFrom(m.state)
	m.store.SetStatus(st)
	m.pub.PublishStatus(st)
}

func (m *Machine) appendChatLocked(msg ChatMessage) {
	m.store.AppendChat(msg)
	m.pub.PublishChat(msg)
}

// pollRoster and pollVitals are the timer entry points; they re-check the
// state because a periodic fire can race the synchronous stop by one tick.
func (m *Machine) pollRoster() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Connected && m.adapter != nil {
		m.refreshRosterLocked()
	}
}

func (m *Machine) pollVitals() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Connected && m.adapter != nil {
		m.refreshVitalsLocked()
	}
}

// refreshRosterLocked re-derives the full roster from the adapter's live
// player set: full replacement snapshot, sorted by username, never a diff.
func (m *Machine) refreshRosterLocked() {
	if m.adapter == nil {
		return
	}
	self := m.adapter.Username()
	players := m.adapter.Players()
	records := make([]PlayerRecord, 0, len(players))
	for _, p := range players {
		records = append(records, PlayerRecord{
			Username: p.Username,
			Ping:     p.Ping,
			UUID:     p.UUID,
			IsBot:    p.Username == self,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Username < records[j].Username
	})
	m.store.SetPlayers(records)
	m.pub.PublishPlayers(records)
}

// refreshVitalsLocked rebuilds the full vitals snapshot from whatever the
// adapter exposes, substituting safe defaults for unpopulated fields.
func (m *Machine) refreshVitalsLocked() {
	if m.adapter == nil {
		return
	}
	a := m.adapter

	v := VitalsSnapshot{
		IsAlive:    a.Alive(),
		IsSleeping: a.Sleeping(),
		IsOperator: m.privileged(),
	}
	if health, food, ok := a.Health(); ok {
		v.Health = health
		v.Food = food
	}
	if gm, ok := a.GameMode(); ok {
		v.GameMode = gm
	}
	if pos, ok := a.Position(); ok {
		v.Position = &PositionSnapshot{X: pos.X, Y: pos.Y, Z: pos.Z}
	}
	if xp, ok := a.Experience(); ok {
		v.Experience = &ExperienceSnapshot{Level: xp.Level, Points: xp.Points, Progress: xp.Progress}
	}
	if armor, ok := a.ArmorPoints(); ok {
		v.Armor = &armor
	}

	m.store.SetVitals(v)
	m.pub.PublishVitals(v)
}

// gameModeVisible is the default privilege check: a server only discloses
// the game mode to clients it considers privileged enough to act on it.
func (m *Machine) gameModeVisible() bool {
	if m.adapter == nil {
		return false
	}
	_, ok := m.adapter.GameMode()
	return ok
}
