package entity

// Game is the state of a single tic-tac-toe game. It only changes through Join, JoinSeat and
// ApplyMove, so the same rules decide legality for live play and for replay of the move log.
// Game is a plain value: copying it yields an independent state.
type Game struct {
	id      int64
	board   Board
	players [2]Player
	started bool
	turn    Seat
	winner  Seat
	draw    bool
	version int64
}

// NewGame returns an empty game with no players.
func NewGame(id int64) *Game {
	return &Game{id: id}
}

// Clone returns an independent copy of the game.
func (that *Game) Clone() *Game {
	clone := *that
	return &clone
}

func (that *Game) ID() int64 {
	return that.id
}

func (that *Game) Board() Board {
	return that.board
}

// Player returns the player holding seat, if any.
func (that *Game) Player(seat Seat) (Player, bool) {
	if !seat.IsValid() {
		return Player{}, false
	}

	player := that.players[seat-1]

	return player, player.IsAssigned()
}

func (that *Game) IsStarted() bool {
	return that.started
}

func (that *Game) Turn() Seat {
	return that.turn
}

func (that *Game) Winner() Seat {
	return that.winner
}

func (that *Game) IsDraw() bool {
	return that.draw
}

// Version is the number of accepted joins and moves. The event that produced the current
// state sits at this position of the game's log, right after the game_reset marker at 0.
func (that *Game) Version() int64 {
	return that.version
}

// IsOver reports whether the game reached an absorbing state.
func (that *Game) IsOver() bool {
	return that.winner != SeatNone || that.draw
}

// Join assigns the next open seat. Seat 1 takes the requested mark; seat 2 takes the
// complement of seat 1 when requested is MarkEmpty and must match it otherwise.
func (that *Game) Join(requested Mark) JoinOutcome {
	if _, ok := that.Player(SeatOne); !ok {
		return that.JoinSeat(SeatOne, requested)
	}

	return that.JoinSeat(SeatTwo, requested)
}

// JoinSeat assigns an explicit seat.
func (that *Game) JoinSeat(seat Seat, requested Mark) JoinOutcome {
	first, hasFirst := that.Player(SeatOne)

	switch seat {
	case SeatOne:
		if hasFirst {
			return JoinOutcome{Status: StatusSeatOneTaken, Player: first}
		}

		if !requested.IsPlayable() {
			return JoinOutcome{Status: StatusMarkNotAllowed}
		}

		player := Player{Seat: SeatOne, Mark: requested}
		that.players[0] = player
		that.turn = SeatOne
		that.version++

		return JoinOutcome{Status: StatusPlayerJoined, Player: player}

	case SeatTwo:
		if second, ok := that.Player(SeatTwo); ok {
			return JoinOutcome{Status: StatusSeatTwoTaken, Player: second}
		}

		if !hasFirst {
			return JoinOutcome{Status: StatusSeatOneMissing}
		}

		mark := first.Mark.Opponent()
		if requested != MarkEmpty && requested != mark {
			return JoinOutcome{Status: StatusMarkNotAllowed}
		}

		player := Player{Seat: SeatTwo, Mark: mark}
		that.players[1] = player
		that.started = true
		that.version++

		return JoinOutcome{Status: StatusPlayerJoined, Player: player}

	default:
		return JoinOutcome{Status: StatusSeatNotAllowed}
	}
}

// ApplyMove validates and plays a move. The checks run in a fixed order and the first
// failing one decides the outcome; rejected moves leave the game untouched.
func (that *Game) ApplyMove(seat Seat, x, y int) Outcome {
	outcome := Outcome{Seat: seat, X: x, Y: y}

	switch {
	case !that.started:
		outcome.Status = StatusMissingPlayer
	case that.board.IsEmpty() && seat != SeatOne:
		outcome.Status = StatusInvalidOrderOfPlay
	case that.IsOver():
		outcome.Status = StatusGameAlreadyOver
	case seat != that.turn:
		outcome.Status = StatusOtherPlayersTurn
	case !that.board.IsValidPosition(x, y) || that.board.IsOccupied(x, y):
		outcome.Status = StatusPositionNotAllowed
	default:
		outcome.Status = that.play(seat, x, y)
	}

	outcome.Turn = that.turn
	outcome.Winner = that.winner

	return outcome
}

func (that *Game) play(seat Seat, x, y int) Status {
	player := that.players[seat-1]
	that.board.Place(x, y, player.Mark)
	that.version++

	switch {
	case that.board.HasLine(player.Mark):
		that.winner = seat
		return StatusWonByMove
	case that.board.IsFull():
		that.draw = true
		return StatusDrawMove
	default:
		that.turn = that.turn.Other()
		return StatusAcceptedMove
	}
}

// Projection is the part of the state cached next to the move log for fast reads.
// It can always be re-derived by replay.
type Projection struct {
	Started bool `json:"started"`
	Winner  Seat `json:"winner_seat"`
	IsDraw  bool `json:"is_draw"`
	Turn    Seat `json:"turn"`
}

func (that *Game) Projection() Projection {
	return Projection{
		Started: that.started,
		Winner:  that.winner,
		IsDraw:  that.draw,
		Turn:    that.turn,
	}
}

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	ID        int64                      `json:"id"`
	Board     [BoardSize][BoardSize]Mark `json:"board"`
	PlayerOne *Player                    `json:"p1,omitempty"`
	PlayerTwo *Player                    `json:"p2,omitempty"`
	Started   bool                       `json:"game_started"`
	Turn      Seat                       `json:"turn"`
	Winner    Seat                       `json:"winner"`
	IsDraw    bool                       `json:"is_draw"`
}

func (that *Game) Snapshot() Snapshot {
	snapshot := Snapshot{
		ID:      that.id,
		Board:   that.board.Rows(),
		Started: that.started,
		Turn:    that.turn,
		Winner:  that.winner,
		IsDraw:  that.draw,
	}

	if player, ok := that.Player(SeatOne); ok {
		snapshot.PlayerOne = &player
	}

	if player, ok := that.Player(SeatTwo); ok {
		snapshot.PlayerTwo = &player
	}

	return snapshot
}
