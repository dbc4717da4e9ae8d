package smartmoney

import "TradePulse/internal/domain/models"

// Order-block and breaker-block detection. An order block is the last
// opposing candle before a move at least twice its own body; a breaker is
// an order block whose level was breached and later reclaimed, flipping
// its support/resistance role.

// OrderBlock marks a candle treated as a zone of institutional interest.
type OrderBlock struct {
	Index    int
	High     float64
	Low      float64
	Strength float64 // size of the move that confirmed the block
}

// OrderBlocks holds the most recent bullish and bearish blocks, newest last.
type OrderBlocks struct {
	Bullish []OrderBlock
	Bearish []OrderBlock
}

const keepOrderBlocks = 3

// FindOrderBlocks scans the window for bullish order blocks (down candle
// before a strong up move) and bearish ones (up candle before a strong
// down move), keeping the most recent 3 of each.
func FindOrderBlocks(candles []models.Candle) OrderBlocks {
	var out OrderBlocks
	for i := 3; i < len(candles)-1; i++ {
		curr := candles[i]
		next := candles[i+1]

		if !curr.IsBullish() && next.IsBullish() {
			moveSize := next.Close - next.Open
			if moveSize > (curr.Open-curr.Close)*2 {
				out.Bullish = append(out.Bullish, OrderBlock{
					Index: i, High: curr.High, Low: curr.Low, Strength: moveSize,
				})
			}
		}
		if curr.IsBullish() && !next.IsBullish() {
			moveSize := next.Open - next.Close
			if moveSize > (curr.Close-curr.Open)*2 {
				out.Bearish = append(out.Bearish, OrderBlock{
					Index: i, High: curr.High, Low: curr.Low, Strength: moveSize,
				})
			}
		}
	}
	out.Bullish = keepLast(out.Bullish, keepOrderBlocks)
	out.Bearish = keepLast(out.Bearish, keepOrderBlocks)
	return out
}

// BreakerBlocks holds order blocks whose role has flipped. Bullish entries
// were bullish order blocks broken down and since reclaimed upward;
// bearish entries the reverse.
type BreakerBlocks struct {
	Bullish []OrderBlock
	Bearish []OrderBlock
}

// FindBreakerBlocks checks each order block for a breach-and-reclaim
// sequence. The block must be at least 5 candles old so the breach had
// room to happen.
func FindBreakerBlocks(candles []models.Candle, obs OrderBlocks) BreakerBlocks {
	var out BreakerBlocks
	if len(candles) < 10 {
		return out
	}
	currentPrice := candles[len(candles)-1].Close

	for _, ob := range obs.Bullish {
		if ob.Index >= len(candles)-5 {
			continue
		}
		brokeBelow := false
		for _, c := range candles[ob.Index+1:] {
			if c.Close < ob.Low {
				brokeBelow = true
				break
			}
		}
		if brokeBelow && currentPrice > ob.High {
			out.Bullish = append(out.Bullish, ob)
		}
	}
	for _, ob := range obs.Bearish {
		if ob.Index >= len(candles)-5 {
			continue
		}
		brokeAbove := false
		for _, c := range candles[ob.Index+1:] {
			if c.Close > ob.High {
				brokeAbove = true
				break
			}
		}
		if brokeAbove && currentPrice < ob.Low {
			out.Bearish = append(out.Bearish, ob)
		}
	}
	return out
}

func keepLast(blocks []OrderBlock, n int) []OrderBlock {
	if len(blocks) <= n {
		return blocks
	}
	return blocks[len(blocks)-n:]
}
