package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/platform/obs"
	"delivery-route-service/internal/ports"
)

// gaIndividual is one candidate solution: one order-id slice per
// courier, in visiting order. routes[i] belongs to couriers[i].
type gaIndividual struct {
	routes [][]string
}

func (ind gaIndividual) clone() gaIndividual {
	out := make([][]string, len(ind.routes))
	for i, r := range ind.routes {
		out[i] = append([]string{}, r...)
	}
	return gaIndividual{routes: out}
}

// BuildGeneticRoutes runs the population-based metaheuristic in
// SPEC_FULL.md §4.5: tournament selection, single-route-swap crossover,
// three mutation operators, and elitism, bounded by cfg.GATimeout and
// cfg.GAGenerations, whichever comes first.
func BuildGeneticRoutes(
	ctx context.Context,
	depot *domain.Depot,
	orders []*domain.Order,
	couriers []*domain.Courier,
	matrixProvider ports.MatrixProvider,
	cfg Config,
) (_ *NearestNeighborResult, err error) {
	defer obs.Time(ctx, "genetic.build")(&err)

	if depot == nil {
		return nil, fmt.Errorf("genetic engine: depot must not be nil")
	}
	if len(couriers) == 0 {
		return &NearestNeighborResult{UnassignedOrderIDs: orderIDs(orders)}, nil
	}
	if len(orders) == 0 {
		return &NearestNeighborResult{}, nil
	}

	locations := make([]domain.Location, 0, len(orders)+1)
	locations = append(locations, depot.Location)
	for _, o := range orders {
		locations = append(locations, o.Location)
	}

	matrix, err := matrixProvider.Matrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("genetic engine: build distance matrix: %w", err)
	}

	orderIndex := make(map[string]int, len(orders))
	orderByID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		orderIndex[o.OrderID] = i + 1
		orderByID[o.OrderID] = o
	}

	seed := cfg.GASeed
	if seed == 0 {
		seed = int64(len(orders))*1_000_003 + int64(len(couriers))
	}
	rng := rand.New(rand.NewSource(uint64(seed)))

	popSize := cfg.GAPopulationSize
	if popSize < 2 {
		popSize = 50
	}
	generations := cfg.GAGenerations
	if generations <= 0 {
		generations = 200
	}
	eliteCount := int(math.Ceil(float64(popSize) * cfg.GAEliteSize))
	if eliteCount < 1 {
		eliteCount = 1
	}

	population := make([]gaIndividual, popSize)
	for i := range population {
		population[i] = gaRandomIndividual(couriers, orders, rng)
	}

	deadline := time.Now().Add(cfg.GATimeout)
	fitness := make([]float64, popSize)

	for gen := 0; gen < generations && time.Now().Before(deadline); gen++ {
		for i, ind := range population {
			fitness[i] = gaFitness(ind, couriers, orders, orderByID, matrix, orderIndex)
		}

		if gen%25 == 0 {
			mean := floats.Sum(fitness) / float64(len(fitness))
			log.Printf("op=genetic.build event=generation gen=%d best=%.2f mean=%.2f", gen, floats.Min(fitness), mean)
		}

		population = gaNextGeneration(population, fitness, couriers, orders, orderByID, eliteCount, cfg.MutationRateOrDefault(), cfg.CrossoverRateOrDefault(), rng)
	}

	for i, ind := range population {
		fitness[i] = gaFitness(ind, couriers, orders, orderByID, matrix, orderIndex)
	}
	bestIdx := floats.MinIdx(fitness)
	best := population[bestIdx]

	assigned := map[string]bool{}
	result := &NearestNeighborResult{}
	for ci, route := range best.routes {
		if len(route) == 0 {
			continue
		}
		r := &domain.Route{
			RouteID:   fmt.Sprintf("route-%s-%s", depot.DepotID, couriers[ci].CourierID),
			CourierID: couriers[ci].CourierID,
			DepotID:   depot.DepotID,
		}
		// Crossover/mutation never hard-guard items/weight (the swap
		// operator is explicitly capacity-blind per §4.5, relying on
		// fitness pressure to steer the population away from
		// violations). Enforce the §8 hard capacity invariant on the
		// emitted route directly: keep orders while they still fit,
		// drop the rest back to unassigned.
		for _, orderID := range route {
			o := orderByID[orderID]
			if r.TotalItems+o.Items > couriers[ci].MaxItems || r.TotalWeightKg+o.WeightKg > couriers[ci].MaxWeightKg {
				continue
			}
			r.Points = append(r.Points, domain.RoutePoint{OrderID: orderID, Sequence: len(r.Points)})
			r.TotalItems += o.Items
			r.TotalWeightKg += o.WeightKg
			assigned[orderID] = true
		}
		if len(r.Points) == 0 {
			continue
		}
		r.TotalDistanceKm = gaRouteDistanceKm(routeOrderIDs(r.Points), matrix, orderIndex)
		result.Routes = append(result.Routes, r)
	}

	for _, o := range orders {
		if !assigned[o.OrderID] {
			result.UnassignedOrderIDs = append(result.UnassignedOrderIDs, o.OrderID)
		}
	}

	return result, nil
}

func routeOrderIDs(points []domain.RoutePoint) []string {
	ids := make([]string, len(points))
	for i, p := range points {
		ids[i] = p.OrderID
	}
	return ids
}

// MutationRateOrDefault guards against an unset/zero mutation rate.
func (c Config) MutationRateOrDefault() float64 {
	if c.GAMutationRate <= 0 {
		return 0.15
	}
	return c.GAMutationRate
}

// CrossoverRateOrDefault guards against an unset/zero crossover rate.
func (c Config) CrossoverRateOrDefault() float64 {
	if c.GACrossoverRate <= 0 {
		return 0.8
	}
	return c.GACrossoverRate
}

func gaRouteDistanceKm(route []string, matrix [][]float64, orderIndex map[string]int) float64 {
	total := 0.0
	current := 0
	for _, id := range route {
		idx := orderIndex[id]
		total += matrix[current][idx]
		current = idx
	}
	total += matrix[current][0]
	return total
}

// gaFitness implements §4.5's objective: total distance, plus a
// per-route overhead, plus a dominant penalty per unassigned order,
// plus a catastrophic penalty per km over a courier's soft distance
// bound. A catastrophic per-unit penalty over items/weight hard
// capacity is also added: the spec's swap mutation performs no
// capacity check by design ("repair is implicit via fitness
// pressure"), so fitness is the only thing steering the population
// away from capacity-violating swaps between generations. Empty
// individuals (no couriers) have infinite fitness.
func gaFitness(ind gaIndividual, couriers []*domain.Courier, orders []*domain.Order, orderByID map[string]*domain.Order, matrix [][]float64, orderIndex map[string]int) float64 {
	if len(couriers) == 0 {
		return floatInf()
	}

	assigned := map[string]bool{}
	total := 0.0
	routeCount := 0

	for ci, route := range ind.routes {
		if len(route) == 0 {
			continue
		}
		routeCount++
		dist := gaRouteDistanceKm(route, matrix, orderIndex)
		total += dist
		for _, id := range route {
			assigned[id] = true
		}
		if over := dist - couriers[ci].MaxRouteKm; over > 0 {
			total += 10000 * over
		}

		items, weight := gaRouteLoad(route, orderByID)
		if over := items - couriers[ci].MaxItems; over > 0 {
			total += 10000 * float64(over)
		}
		if over := weight - couriers[ci].MaxWeightKg; over > 0 {
			total += 10000 * over
		}
	}

	unassigned := 0
	for _, o := range orders {
		if !assigned[o.OrderID] {
			unassigned++
		}
	}

	total += 10 * float64(routeCount)
	total += 1000 * float64(unassigned)

	return total
}

func gaRouteLoad(route []string, orderByID map[string]*domain.Order) (items int, weight float64) {
	for _, id := range route {
		if o := orderByID[id]; o != nil {
			items += o.Items
			weight += o.WeightKg
		}
	}
	return items, weight
}

func floatInf() float64 {
	return 1e18
}

// gaRandomIndividual distributes orders across couriers respecting hard
// items/weight capacity; an order with no remaining feasible courier is
// simply left off every route (penalized, not rejected, by gaFitness).
func gaRandomIndividual(couriers []*domain.Courier, orders []*domain.Order, rng *rand.Rand) gaIndividual {
	perm := rng.Perm(len(orders))
	routes := make([][]string, len(couriers))
	items := make([]int, len(couriers))
	weight := make([]float64, len(couriers))

	for _, oi := range perm {
		o := orders[oi]
		start := rng.Intn(len(couriers))
		for attempt := 0; attempt < len(couriers); attempt++ {
			ci := (start + attempt) % len(couriers)
			c := couriers[ci]
			if items[ci]+o.Items <= c.MaxItems && weight[ci]+o.WeightKg <= c.MaxWeightKg {
				routes[ci] = append(routes[ci], o.OrderID)
				items[ci] += o.Items
				weight[ci] += o.WeightKg
				break
			}
		}
	}

	return gaIndividual{routes: routes}
}

func gaNextGeneration(
	population []gaIndividual,
	fitness []float64,
	couriers []*domain.Courier,
	orders []*domain.Order,
	orderByID map[string]*domain.Order,
	eliteCount int,
	mutationRate float64,
	crossoverRate float64,
	rng *rand.Rand,
) []gaIndividual {
	next := make([]gaIndividual, 0, len(population))

	elites := gaEliteIndices(fitness, eliteCount)
	for _, idx := range elites {
		next = append(next, population[idx].clone())
	}

	for len(next) < len(population) {
		p1 := gaTournamentSelect(population, fitness, rng)
		p2 := gaTournamentSelect(population, fitness, rng)
		child1, child2 := gaCrossover(p1, p2, orders, couriers, crossoverRate, rng)

		if rng.Float64() < mutationRate {
			gaMutate(&child1, couriers, orderByID, rng)
		}
		next = append(next, child1)

		if len(next) < len(population) {
			if rng.Float64() < mutationRate {
				gaMutate(&child2, couriers, orderByID, rng)
			}
			next = append(next, child2)
		}
	}

	return next
}

func gaEliteIndices(fitness []float64, n int) []int {
	idx := make([]int, len(fitness))
	for i := range idx {
		idx[i] = i
	}
	// simple selection sort over a small n is fine: elite counts are a
	// small fraction of population size.
	for i := 0; i < n && i < len(idx); i++ {
		best := i
		for j := i + 1; j < len(idx); j++ {
			if fitness[idx[j]] < fitness[idx[best]] {
				best = j
			}
		}
		idx[i], idx[best] = idx[best], idx[i]
	}
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

func gaTournamentSelect(population []gaIndividual, fitness []float64, rng *rand.Rand) gaIndividual {
	size := (len(population) + 9) / 10
	if size < 2 {
		size = 2
	}
	if size > len(population) {
		size = len(population)
	}

	best := rng.Intn(len(population))
	for i := 1; i < size; i++ {
		cand := rng.Intn(len(population))
		if fitness[cand] < fitness[best] {
			best = cand
		}
	}
	return population[best]
}

// gaCrossover is single-route-swap crossover: with probability
// crossoverRate, child1 starts as a clone of p1 with one random route
// index replaced by p2's route at an independently chosen random
// index (and symmetrically for child2), then any order missing or
// duplicated as a result is repaired by dropping duplicates and
// re-offering missing orders to the first courier with capacity. With
// probability 1-crossoverRate, or when either parent has no routes,
// both children are unmodified clones of their respective parent.
func gaCrossover(p1, p2 gaIndividual, orders []*domain.Order, couriers []*domain.Courier, crossoverRate float64, rng *rand.Rand) (gaIndividual, gaIndividual) {
	child1, child2 := p1.clone(), p2.clone()

	if rng.Float64() > crossoverRate || len(child1.routes) == 0 || len(child2.routes) == 0 {
		return child1, child2
	}

	idx1 := rng.Intn(len(child1.routes))
	idx2 := rng.Intn(len(child2.routes))
	child1.routes[idx1], child2.routes[idx2] = child2.routes[idx2], child1.routes[idx1]

	gaRepair(&child1, orders, couriers)
	gaRepair(&child2, orders, couriers)
	return child1, child2
}

// gaRepair enforces "each order appears at most once, every order is
// offered somewhere": duplicates are dropped after their first
// occurrence, and orders missing entirely are offered, in order, to the
// first courier with remaining hard capacity.
func gaRepair(ind *gaIndividual, orders []*domain.Order, couriers []*domain.Courier) {
	orderByID := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		orderByID[o.OrderID] = o
	}

	seen := map[string]bool{}
	items := make([]int, len(couriers))
	weight := make([]float64, len(couriers))

	for ci, route := range ind.routes {
		deduped := route[:0]
		for _, id := range route {
			if seen[id] {
				continue
			}
			seen[id] = true
			deduped = append(deduped, id)
			if o := orderByID[id]; o != nil {
				items[ci] += o.Items
				weight[ci] += o.WeightKg
			}
		}
		ind.routes[ci] = deduped
	}

	for _, o := range orders {
		if seen[o.OrderID] {
			continue
		}
		for ci, c := range couriers {
			if items[ci]+o.Items <= c.MaxItems && weight[ci]+o.WeightKg <= c.MaxWeightKg {
				ind.routes[ci] = append(ind.routes[ci], o.OrderID)
				items[ci] += o.Items
				weight[ci] += o.WeightKg
				seen[o.OrderID] = true
				break
			}
		}
	}
}

// gaMutate applies one of three operators uniformly at random: swap two
// orders (within or across routes, no capacity check by design per
// §4.5 — fitness pressure repairs capacity violations across
// generations), move one order to another route only if the target's
// items-capacity still holds, or reverse a sub-segment of a single
// route.
func gaMutate(ind *gaIndividual, couriers []*domain.Courier, orderByID map[string]*domain.Order, rng *rand.Rand) {
	nonEmpty := make([]int, 0, len(ind.routes))
	for i, r := range ind.routes {
		if len(r) > 0 {
			nonEmpty = append(nonEmpty, i)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}

	switch rng.Intn(3) {
	case 0: // swap
		r1 := nonEmpty[rng.Intn(len(nonEmpty))]
		r2 := nonEmpty[rng.Intn(len(nonEmpty))]
		i1 := rng.Intn(len(ind.routes[r1]))
		i2 := rng.Intn(len(ind.routes[r2]))
		ind.routes[r1][i1], ind.routes[r2][i2] = ind.routes[r2][i2], ind.routes[r1][i1]
	case 1: // move
		if len(ind.routes) < 2 {
			return
		}
		r1 := nonEmpty[rng.Intn(len(nonEmpty))]
		i1 := rng.Intn(len(ind.routes[r1]))
		id := ind.routes[r1][i1]

		r2 := rng.Intn(len(ind.routes))
		for r2 == r1 {
			r2 = rng.Intn(len(ind.routes))
		}

		o := orderByID[id]
		targetItems, _ := gaRouteLoad(ind.routes[r2], orderByID)
		if o == nil || targetItems+o.Items > couriers[r2].MaxItems {
			return
		}

		ind.routes[r1] = append(ind.routes[r1][:i1], ind.routes[r1][i1+1:]...)
		pos := rng.Intn(len(ind.routes[r2]) + 1)
		ind.routes[r2] = append(ind.routes[r2], "")
		copy(ind.routes[r2][pos+1:], ind.routes[r2][pos:])
		ind.routes[r2][pos] = id
	case 2: // reverse
		r1 := nonEmpty[rng.Intn(len(nonEmpty))]
		route := ind.routes[r1]
		if len(route) < 2 {
			return
		}
		i := rng.Intn(len(route))
		j := rng.Intn(len(route))
		if i > j {
			i, j = j, i
		}
		for i < j {
			route[i], route[j] = route[j], route[i]
			i++
			j--
		}
	}
}
