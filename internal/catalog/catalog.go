// Package catalog 保存只读的航班目录，并提供按出发地和航线的查询
package catalog

import "github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"

type route struct {
	origin      string
	destination string
}

// Catalog 创建后不再修改，可以在多个 goroutine 之间共享
type Catalog struct {
	flights  []*domain.Flight
	byOrigin map[string][]*domain.Flight
	byRoute  map[route][]*domain.Flight
}

func New(flights []*domain.Flight) *Catalog {
	c := &Catalog{
		flights:  make([]*domain.Flight, 0, len(flights)),
		byOrigin: make(map[string][]*domain.Flight),
		byRoute:  make(map[route][]*domain.Flight),
	}

	for _, flight := range flights {
		if flight == nil {
			continue
		}
		c.flights = append(c.flights, flight)
		c.byOrigin[flight.Origin] = append(c.byOrigin[flight.Origin], flight)
		key := route{origin: flight.Origin, destination: flight.Destination}
		c.byRoute[key] = append(c.byRoute[key], flight)
	}

	return c
}

func (c *Catalog) Len() int {
	return len(c.flights)
}

func (c *Catalog) Flights() []*domain.Flight {
	return c.flights
}

// ByOrigin 返回从 origin 出发的所有航班，按目录中的顺序排列
func (c *Catalog) ByOrigin(origin string) []*domain.Flight {
	return c.byOrigin[origin]
}

func (c *Catalog) Route(origin string, destination string) []*domain.Flight {
	return c.byRoute[route{origin: origin, destination: destination}]
}
