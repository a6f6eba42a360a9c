package entity

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
)

const (
	MaxMembers = 2

	DefaultHostName  = "Player 1"
	DefaultGuestName = "Player 2"
	unknownName      = "Player"
)

type Response string

const (
	ResponseAccept Response = "accept"
	ResponseReject Response = "reject"
)

func (that Response) IsValid() bool {
	return that == ResponseAccept || that == ResponseReject
}

type PlayAgainOutcome int

const (
	// PlayAgainPending - the request was forwarded to the opponent.
	PlayAgainPending PlayAgainOutcome = iota
	// PlayAgainReset - both sides agreed and the room was reset.
	PlayAgainReset
	// PlayAgainAcceptedWaiting - the responder accepted, the requester has not.
	PlayAgainAcceptedWaiting
	// PlayAgainRejected - the responder rejected and left the room.
	PlayAgainRejected
)

// Snapshot is a copy of the room state safe to hand out of the room lock.
type Snapshot struct {
	RoomID       string
	HostID       string
	Members      []string
	PlayerNames  map[string]string
	Boards       map[string][]int
	MarkedBoards map[string]Grid
	Progress     map[string]int
	Labels       map[string]string
	Called       []int
	CurrentTurn  string
	Winner       string
}

type CallResult struct {
	Number   int
	Winner   string
	Snapshot Snapshot
}

type PlayAgainResult struct {
	Outcome PlayAgainOutcome
	// Opponent is the other member relative to the caller when the operation ran.
	Opponent string
	// Name is the display name of the caller.
	Name      string
	Remaining string
	Empty     bool
	// InProgress reports a started, undecided game interrupted by a reject.
	InProgress bool
	Snapshot   Snapshot
}

type LeaveResult struct {
	Name      string
	Remaining string
	Empty     bool
	// InProgress reports a started, undecided game interrupted by the leave.
	InProgress bool
	Snapshot   Snapshot
}

// Room is a single two-player bingo game. All methods are safe for concurrent use.
type Room struct {
	mu sync.Mutex

	id      string
	hostID  string
	members []string
	names   map[string]string

	boards      map[string]Board
	marked      map[string]Grid
	called      map[int]struct{}
	calledOrder []int
	currentTurn string
	progress    map[string]int
	labels      map[string]string
	winner      string

	playAgainRequests  map[string]bool
	playAgainResponses map[string]Response

	closed bool
}

func NewRoom(id, hostID, hostName string) *Room {
	if hostName == "" {
		hostName = DefaultHostName
	}

	return &Room{
		id:                 id,
		hostID:             hostID,
		members:            []string{hostID},
		names:              map[string]string{hostID: hostName},
		boards:             make(map[string]Board),
		marked:             make(map[string]Grid),
		called:             make(map[int]struct{}),
		progress:           map[string]int{hostID: 0},
		labels:             map[string]string{hostID: ""},
		playAgainRequests:  make(map[string]bool),
		playAgainResponses: make(map[string]Response),
	}
}

func (that *Room) ID() string {
	return that.id
}

func (that *Room) Members() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return slices.Clone(that.members)
}

func (that *Room) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

// Close marks the room as removed from the registry; every later operation fails.
func (that *Room) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
}

func (that *Room) Join(sid, name string) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return Snapshot{}, apperror.ErrRoomClosed
	}

	if that.isMember(sid) {
		return Snapshot{}, apperror.ErrAlreadyInRoom
	}

	if len(that.members) >= MaxMembers {
		return Snapshot{}, apperror.ErrRoomFull
	}

	if name == "" {
		name = DefaultGuestName
	}

	that.members = append(that.members, sid)
	that.names[sid] = name
	that.progress[sid] = 0
	that.labels[sid] = ""

	return that.snapshot(), nil
}

// SubmitBoard stores the board of sid and reports whether both players are ready.
func (that *Room) SubmitBoard(sid string, board Board) (bool, Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.checkMember(sid); err != nil {
		return false, Snapshot{}, err
	}

	if that.currentTurn != "" || that.winner != "" {
		return false, Snapshot{}, apperror.ErrGameAlreadyStarted
	}

	that.boards[sid] = board
	that.marked[sid] = Grid{}
	that.progress[sid] = 0
	that.labels[sid] = ""

	return that.boardsReady(), that.snapshot(), nil
}

// Start picks the first turn at random. Only the host may start, once both boards are in.
func (that *Room) Start(sid string) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.checkMember(sid); err != nil {
		return Snapshot{}, err
	}

	switch {
	case sid != that.hostID:
		return Snapshot{}, apperror.ErrNotHost
	case that.winner != "":
		return Snapshot{}, apperror.ErrGameFinished
	case that.currentTurn != "":
		return Snapshot{}, apperror.ErrGameAlreadyStarted
	case !that.boardsReady():
		return Snapshot{}, apperror.ErrBoardsMissing
	}

	that.currentTurn = that.members[rand.IntN(len(that.members))] //nolint: gosec // it's ok

	return that.snapshot(), nil
}

// CallNumber marks number on every board, re-evaluates the grids and passes the turn.
// The turn is passed even when the call produces a winner. On a simultaneous bingo
// the caller wins.
func (that *Room) CallNumber(sid string, number int) (CallResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.checkMember(sid); err != nil {
		return CallResult{}, err
	}

	switch {
	case that.winner != "":
		return CallResult{}, apperror.ErrGameFinished
	case that.currentTurn == "":
		return CallResult{}, apperror.ErrGameIsNotStarted
	case sid != that.currentTurn:
		return CallResult{}, apperror.ErrNotYourTurn
	}

	if _, ok := that.called[number]; ok {
		return CallResult{}, apperror.ErrNumberCalled
	}

	that.called[number] = struct{}{}
	that.calledOrder = append(that.calledOrder, number)

	var winners []string
	for _, member := range that.members {
		board, ok := that.boards[member]
		if !ok {
			continue
		}

		grid := that.marked[member]
		if row, col, found := board.Find(number); found {
			grid[row][col] = true
			that.marked[member] = grid
		}

		lines, label := Evaluate(grid)
		that.progress[member] = lines
		that.labels[member] = label

		if IsWin(lines) {
			winners = append(winners, member)
		}
	}

	if next, ok := that.opponentOf(sid); ok {
		that.currentTurn = next
	}

	switch {
	case len(winners) == 1:
		that.winner = winners[0]
	case len(winners) > 1:
		that.winner = sid
	}

	return CallResult{
		Number:   number,
		Winner:   that.winner,
		Snapshot: that.snapshot(),
	}, nil
}

// RequestPlayAgain registers sid's wish to replay. When the opponent has already
// asked too, the room is reset.
func (that *Room) RequestPlayAgain(sid string) (PlayAgainResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.checkMember(sid); err != nil {
		return PlayAgainResult{}, err
	}

	opponent, ok := that.opponentOf(sid)
	if !ok {
		return PlayAgainResult{}, apperror.ErrNoOpponent
	}

	that.playAgainRequests[sid] = true

	result := PlayAgainResult{
		Outcome:  PlayAgainPending,
		Opponent: opponent,
		Name:     that.nameOf(sid),
	}

	if that.playAgainRequests[opponent] {
		that.resetGame()
		result.Outcome = PlayAgainReset
	}

	result.Snapshot = that.snapshot()

	return result, nil
}

// RespondPlayAgain answers the opponent's request. An accept resets the room only when
// the opponent has accepted or requested as well. A reject removes sid from the room.
func (that *Room) RespondPlayAgain(sid string, response Response, requesterID string) (PlayAgainResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.checkMember(sid); err != nil {
		return PlayAgainResult{}, err
	}

	if !response.IsValid() {
		return PlayAgainResult{}, apperror.ErrInvalidAnswer
	}

	opponent, ok := that.opponentOf(sid)
	if !ok {
		return PlayAgainResult{}, apperror.ErrNoOpponent
	}

	if requesterID != "" && requesterID != opponent {
		return PlayAgainResult{}, apperror.ErrUnknownRequest
	}

	that.playAgainResponses[sid] = response

	result := PlayAgainResult{
		Opponent: opponent,
		Name:     that.nameOf(sid),
	}

	if response == ResponseAccept {
		if that.playAgainResponses[opponent] == ResponseAccept || that.playAgainRequests[opponent] {
			that.resetGame()
			result.Outcome = PlayAgainReset
		} else {
			result.Outcome = PlayAgainAcceptedWaiting
		}

		result.Snapshot = that.snapshot()

		return result, nil
	}

	result.Outcome = PlayAgainRejected
	result.InProgress = that.inProgress()
	that.removeMember(sid)
	that.clearPlayAgain()

	if len(that.members) == 0 {
		result.Empty = true
		that.closed = true
	} else {
		// the remaining player keeps the room and can host a fresh game
		that.resetGame()
		result.Remaining = that.members[0]
	}

	result.Snapshot = that.snapshot()

	return result, nil
}

// Leave removes sid and closes the room in one step, so no join can land in a room
// that is about to be deleted. The result carries the final state seen by the remaining member.
func (that *Room) Leave(sid string) (LeaveResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.checkMember(sid); err != nil {
		return LeaveResult{}, err
	}

	name, ok := that.names[sid]
	if !ok {
		name = "Opponent"
	}

	inProgress := that.inProgress()
	that.removeMember(sid)
	that.clearPlayAgain()
	that.closed = true

	result := LeaveResult{
		Name:       name,
		Empty:      len(that.members) == 0,
		InProgress: inProgress,
		Snapshot:   that.snapshot(),
	}

	if !result.Empty {
		result.Remaining = that.members[0]
	}

	return result, nil
}

func (that *Room) checkMember(sid string) error {
	if that.closed {
		return apperror.ErrRoomClosed
	}

	if !that.isMember(sid) {
		return apperror.ErrNotInRoom
	}

	return nil
}

func (that *Room) isMember(sid string) bool {
	return slices.Contains(that.members, sid)
}

func (that *Room) opponentOf(sid string) (string, bool) {
	for _, member := range that.members {
		if member != sid {
			return member, true
		}
	}

	return "", false
}

func (that *Room) nameOf(sid string) string {
	if name, ok := that.names[sid]; ok {
		return name
	}

	return unknownName
}

func (that *Room) inProgress() bool {
	return that.currentTurn != "" && that.winner == ""
}

func (that *Room) boardsReady() bool {
	if len(that.members) != MaxMembers {
		return false
	}

	for _, member := range that.members {
		if _, ok := that.boards[member]; !ok {
			return false
		}
	}

	return true
}

// resetGame clears the per-game state and keeps members and names.
func (that *Room) resetGame() {
	that.boards = make(map[string]Board)
	that.marked = make(map[string]Grid)
	that.called = make(map[int]struct{})
	that.calledOrder = nil
	that.currentTurn = ""
	that.winner = ""

	for _, member := range that.members {
		that.progress[member] = 0
		that.labels[member] = ""
	}

	that.clearPlayAgain()
}

func (that *Room) clearPlayAgain() {
	that.playAgainRequests = make(map[string]bool)
	that.playAgainResponses = make(map[string]Response)
}

func (that *Room) removeMember(sid string) {
	that.members = slices.DeleteFunc(that.members, func(member string) bool {
		return member == sid
	})

	delete(that.boards, sid)
	delete(that.marked, sid)
	delete(that.progress, sid)
	delete(that.labels, sid)
	delete(that.names, sid)
	delete(that.playAgainRequests, sid)
	delete(that.playAgainResponses, sid)

	if that.currentTurn == sid {
		that.currentTurn = ""
	}

	if that.hostID == sid && len(that.members) > 0 {
		that.hostID = that.members[0]
	}
}

func (that *Room) snapshot() Snapshot {
	snap := Snapshot{
		RoomID:       that.id,
		HostID:       that.hostID,
		Members:      slices.Clone(that.members),
		PlayerNames:  make(map[string]string, len(that.names)),
		Boards:       make(map[string][]int, len(that.members)),
		MarkedBoards: make(map[string]Grid, len(that.members)),
		Progress:     make(map[string]int, len(that.members)),
		Labels:       make(map[string]string, len(that.members)),
		Called:       slices.Clone(that.calledOrder),
		CurrentTurn:  that.currentTurn,
		Winner:       that.winner,
	}

	if snap.Called == nil {
		snap.Called = []int{}
	}

	for sid, name := range that.names {
		snap.PlayerNames[sid] = name
	}

	for _, member := range that.members {
		if board, ok := that.boards[member]; ok {
			snap.Boards[member] = slices.Clone(board[:])
		} else {
			snap.Boards[member] = []int{}
		}

		snap.MarkedBoards[member] = that.marked[member]
		snap.Progress[member] = that.progress[member]
		snap.Labels[member] = that.labels[member]
	}

	return snap
}
