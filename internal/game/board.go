package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCell     = errors.New("cell is empty")
	ErrUnknownPiece  = errors.New("unknown piece code")
	ErrSquareOutside = errors.New("square outside the board")
)

// Color identifies a side. The zero value is no side.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "white":
		*c = White
	case "black":
		*c = Black
	case "":
		*c = NoColor
	default:
		return fmt.Errorf("unknown color %q", s)
	}
	return nil
}

// PieceKind is the piece type without color.
type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = map[PieceKind]byte{
	Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k',
}

// Cell is either empty or holds one piece of one color.
type Cell struct {
	Kind  PieceKind
	Color Color
}

// Piece builds an occupied cell.
func Piece(kind PieceKind, color Color) Cell {
	return Cell{Kind: kind, Color: color}
}

func (c Cell) Empty() bool { return c.Kind == NoPiece }

// Code renders the wire piece code: uppercase white, lowercase black, "" empty.
func (c Cell) Code() string {
	l, ok := kindLetters[c.Kind]
	if !ok {
		return ""
	}
	if c.Color == White {
		return strings.ToUpper(string(l))
	}
	return string(l)
}

// ParseCell reads a wire piece code back into a cell.
func ParseCell(code string) (Cell, error) {
	if code == "" {
		return Cell{}, nil
	}
	if len(code) != 1 {
		return Cell{}, fmt.Errorf("%w: %q", ErrUnknownPiece, code)
	}
	lower := strings.ToLower(code)
	for kind, l := range kindLetters {
		if lower[0] != l {
			continue
		}
		color := Black
		if code != lower {
			color = White
		}
		return Piece(kind, color), nil
	}
	return Cell{}, fmt.Errorf("%w: %q", ErrUnknownPiece, code)
}

// Square addresses a cell. Row 0 is black's back rank, row 7 is white's.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

// Board is an 8x8 grid. It is a value type: copies are independent.
type Board [8][8]Cell

var backRank = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// InitialBoard returns the standard starting layout.
func InitialBoard() Board {
	var b Board
	for col, kind := range backRank {
		b[0][col] = Piece(kind, Black)
		b[1][col] = Piece(Pawn, Black)
		b[6][col] = Piece(Pawn, White)
		b[7][col] = Piece(kind, White)
	}
	return b
}

// At returns the cell at s. s must be valid.
func (b *Board) At(s Square) Cell {
	return b[s.Row][s.Col]
}

// PieceOwner reports the color owning the piece in c.
func PieceOwner(c Cell) (Color, error) {
	if c.Empty() {
		return NoColor, ErrEmptyCell
	}
	return c.Color, nil
}

// ApplyMove returns a new board with the piece at from placed on to and from
// cleared, plus whatever occupied to before the move. Only emptiness of from
// is checked; ownership and turn order belong to the caller.
func ApplyMove(b Board, from, to Square) (Board, Cell, error) {
	if !from.Valid() || !to.Valid() {
		return b, Cell{}, ErrSquareOutside
	}
	piece := b.At(from)
	if piece.Empty() {
		return b, Cell{}, ErrEmptyCell
	}
	captured := b.At(to)
	b[to.Row][to.Col] = piece
	b[from.Row][from.Col] = Cell{}
	return b, captured, nil
}

// IsKingAt reports whether a king of either color stands on s.
func IsKingAt(b Board, s Square) bool {
	return s.Valid() && b.At(s).Kind == King
}

// Codes renders the grid as wire piece codes.
func (b *Board) Codes() [][]string {
	out := make([][]string, 8)
	for r := range b {
		row := make([]string, 8)
		for c := range b[r] {
			row[c] = b[r][c].Code()
		}
		out[r] = row
	}
	return out
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Codes())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := BoardFromCodes(rows)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// BoardFromCodes parses a grid of wire codes.
func BoardFromCodes(rows [][]string) (Board, error) {
	var b Board
	if len(rows) != 8 {
		return b, fmt.Errorf("expected 8 rows, got %d", len(rows))
	}
	for r, row := range rows {
		if len(row) != 8 {
			return b, fmt.Errorf("row %d: expected 8 cells, got %d", r, len(row))
		}
		for c, code := range row {
			cell, err := ParseCell(code)
			if err != nil {
				return b, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			b[r][c] = cell
		}
	}
	return b, nil
}
