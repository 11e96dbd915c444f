package game

import (
	"github.com/corentings/chess/v2"
)

var fenPieces = map[Cell]chess.Piece{
	Piece(King, White):   chess.WhiteKing,
	Piece(Queen, White):  chess.WhiteQueen,
	Piece(Rook, White):   chess.WhiteRook,
	Piece(Bishop, White): chess.WhiteBishop,
	Piece(Knight, White): chess.WhiteKnight,
	Piece(Pawn, White):   chess.WhitePawn,
	Piece(King, Black):   chess.BlackKing,
	Piece(Queen, Black):  chess.BlackQueen,
	Piece(Rook, Black):   chess.BlackRook,
	Piece(Bishop, Black): chess.BlackBishop,
	Piece(Knight, Black): chess.BlackKnight,
	Piece(Pawn, Black):   chess.BlackPawn,
}

// FEN renders the piece-placement field for clients that draw from notation.
// Display only: positions reachable here need not be legal chess positions.
func (b *Board) FEN() string {
	m := make(map[chess.Square]chess.Piece, 32)
	for r := range b {
		for c := range b[r] {
			p, ok := fenPieces[b[r][c]]
			if !ok {
				continue
			}
			sq := chess.NewSquare(chess.File(c), chess.Rank(7-r))
			m[sq] = p
		}
	}
	return chess.NewBoard(m).String()
}
