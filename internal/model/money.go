package model

import "github.com/shopspring/decimal"

// hundred is the odds scale factor: an Odds value of 150 means ratio 1.50.
const hundred = 100

// LiabilityCapacity is the maximum lay liability a back of the given
// remaining stake and odds can absorb: floor(stake*odds/100) - stake.
func LiabilityCapacity(stake int64, odds int) int64 {
	return stake*int64(odds)/hundred - stake
}

// ConsumedBackForLayNeed is the back stake consumed to satisfy a lay need of
// layNeed at the given odds: floor(layNeed*100/(odds-100)), algebraically
// equal to floor(layNeed / (odds/100 - 1)).
func ConsumedBackForLayNeed(layNeed int64, odds int) int64 {
	return layNeed * hundred / int64(odds-hundred)
}

// ConsumedLayForBackStake is the lay liability consumed when a back of the
// given stake is fully absorbed at the given odds: floor(stake*(odds-100)/100).
func ConsumedLayForBackStake(stake int64, odds int) int64 {
	return stake * int64(odds-hundred) / hundred
}

// GrossReturn is a winning back's payout on its matched stake:
// floor(odds*matchedStake/100).
func GrossReturn(matchedStake int64, odds int) int64 {
	return matchedStake * int64(odds) / hundred
}

// DisplayOdds renders an odds integer (x100) as a human string, e.g. 150
// becomes "1.50". It is display only and is not called from the matching or
// settlement math; no log line in this repository calls it.
func DisplayOdds(odds int) string {
	return decimal.New(int64(odds), -2).StringFixed(2)
}
