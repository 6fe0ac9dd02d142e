// Package elo implements the ELO skill-rating update applied when a
// match settles with a definite winner.
//
// The update follows the classic logistic model:
//
//	E_winner = 1 / (1 + 10^((R_loser − R_winner) / 400))
//	R'_winner = round(R_winner + K_winner × (1 − E_winner))
//	R'_loser  = round(R_loser  + K_loser  × (0 − E_loser))
//
// The K-factor is chosen per player from that player's own games-played
// count before the match: 40 during placement (fewer than 30 games),
// 32 afterwards. Ratings are floored at 100 so long losing streaks can
// never drive a rating toward zero.
//
// Internal math uses float64; results are rounded to the nearest integer
// immediately, so the function is deterministic for all valid inputs.
//
// Reference: Elo, A. (1978) "The Rating of Chessplayers, Past and Present"
package elo

import "math"

const (
	// RatingFloor is the minimum rating after any update.
	RatingFloor = 100

	// PlacementGames is the games-played threshold below which the
	// higher placement K-factor applies.
	PlacementGames = 30

	// KPlacement is the K-factor for players still in placement.
	KPlacement = 40

	// KEstablished is the K-factor for established players.
	KEstablished = 32

	// spread is the rating difference at which the expected score
	// reaches ~10:1 odds.
	spread = 400.0
)

// KFactor returns the K-factor for a player with the given games-played
// count before the match being rated.
func KFactor(gamesPlayed uint32) float64 {
	if gamesPlayed < PlacementGames {
		return KPlacement
	}
	return KEstablished
}

// ExpectedScore returns the probability that a player rated `rating`
// beats an opponent rated `opponent` under the logistic model.
func ExpectedScore(rating, opponent uint32) float64 {
	return 1.0 / (1.0 + math.Pow(10, (float64(opponent)-float64(rating))/spread))
}

// UpdateRatings computes both players' new ratings after a decisive
// outcome. Games-played counts are the values before this match.
func UpdateRatings(winnerRating, loserRating uint32, winnerGames, loserGames uint32) (newWinner, newLoser uint32) {
	kWinner := KFactor(winnerGames)
	kLoser := KFactor(loserGames)

	expWinner := ExpectedScore(winnerRating, loserRating)
	expLoser := 1.0 - expWinner

	w := math.Round(float64(winnerRating) + kWinner*(1.0-expWinner))
	l := math.Round(float64(loserRating) + kLoser*(0.0-expLoser))

	if w < RatingFloor {
		w = RatingFloor
	}
	if l < RatingFloor {
		l = RatingFloor
	}
	return uint32(w), uint32(l)
}
