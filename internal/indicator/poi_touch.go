package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Zone is a point of interest left behind by a break of structure. A bullish break
// leaves a demand zone at the candle of the latest swing low, a bearish break a
// supply zone at the candle of the latest swing high.
type Zone struct {
	ID        int
	Direction int
	Low       float64
	High      float64
	Origin    types.Candle
	Break     Break
}

// Touch records a candle re-entering a zone.
type Touch struct {
	Zone   Zone
	Candle types.Candle
}

// PoiTouch emits +1 when a candle touches a demand zone, -1 for a supply zone and 0
// otherwise. A zone is consumed by its first touch. Zones created on a tick can only
// be touched by later candles.
type PoiTouch struct {
	*node
	bos     *BOS
	sync    tickSync
	tree    *IntervalTree
	zones   map[int]Zone
	touches []Touch
	nextID  int
	seen    int
}

// PoiTouch tracks zones created by bos breaks.
func (f *Factory) PoiTouch(bos *BOS, opts ...Option) *PoiTouch {
	return memo(f, "PoiTouch", []Series{bos}, nil, opts, func(key string, size int) *PoiTouch {
		p := &PoiTouch{
			node:  newNode(key, size),
			bos:   bos,
			sync:  tickSync{inputs: []Series{bos}},
			tree:  NewIntervalTree(),
			zones: make(map[int]Zone),
		}
		bos.subscribe(p)

		return p
	})
}

func (p *PoiTouch) onUpdate() {
	if !p.sync.ready() {
		return
	}

	candle, ok := p.bos.swings.candles.Candle(0)
	if !ok {
		p.emit(optional.None[float64]())

		return
	}

	out := 0.0
	newest := -1

	// When several zones are touched at once the newest one decides the output.
	for _, hit := range p.tree.Overlapping(candle.Low, candle.High) {
		zone := p.zones[hit.ID]
		p.tree.Delete(hit)
		delete(p.zones, zone.ID)
		p.touches = append(p.touches, Touch{Zone: zone, Candle: candle})

		if zone.ID > newest {
			newest = zone.ID
			out = float64(zone.Direction)
		}
	}

	breaks := p.bos.breaks
	for ; p.seen < len(breaks); p.seen++ {
		p.addZone(breaks[p.seen])
	}

	p.emit(optional.Some(out))
}

func (p *PoiTouch) addZone(brk Break) {
	kind := SwingLow
	if brk.Direction < 0 {
		kind = SwingHigh
	}

	origin, ok := p.bos.swings.Last(kind)
	if !ok {
		return
	}

	zone := Zone{
		ID:        p.nextID,
		Direction: brk.Direction,
		Low:       origin.Candle.Low,
		High:      origin.Candle.High,
		Origin:    origin.Candle,
		Break:     brk,
	}
	p.nextID++

	p.zones[zone.ID] = zone
	p.tree.Insert(Interval{Low: zone.Low, High: zone.High, ID: zone.ID})
}

// ActiveZones returns the number of untouched zones.
func (p *PoiTouch) ActiveZones() int {
	return p.tree.Len()
}

// Touches returns every touch so far.
func (p *PoiTouch) Touches() []Touch {
	return append([]Touch(nil), p.touches...)
}

// Zone returns the untouched zone by id.
func (p *PoiTouch) Zone(id int) (Zone, bool) {
	z, ok := p.zones[id]

	return z, ok
}
