package aco

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rand - источник случайности муравья. *rand.Rand удовлетворяет интерфейсу,
// поэтому в тестах достаточно передать генератор с фиксированным сидом.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

const (
	// minDistance заменяет нулевое расстояние между совпадающими точками.
	minDistance = 1e-10
	// minTotalWeight - ниже этой суммы весов выбор становится равномерным.
	minTotalWeight = 1e-300
)

// selectNext выбирает следующую точку методом рулетки и возвращает её
// индекс в unvisited. Вес кандидата: tau^alpha * (1/d)^beta.
// При вырожденной сумме весов выбор равномерный, при переполнении выбирается
// доминирующий кандидат - функция не может не выбрать.
func selectNext(
	current int,
	unvisited []int,
	field Field,
	dist *mat.SymDense,
	alpha float64,
	beta float64,
	rnd Rand,
	weights []float64,
) int {
	k := len(unvisited)
	sumW := 0.0
	for i, j := range unvisited {
		d := dist.At(current, j)
		if d < minDistance {
			d = minDistance
		}
		w := fastPow(field.At(current, j), alpha) * fastPow(1.0/d, beta)
		weights[i] = w
		sumW += w
	}

	if math.IsInf(sumW, 1) {
		return selectOverflow(weights[:k], rnd)
	}
	if !(sumW > minTotalWeight) {
		return rnd.Intn(k)
	}
	return roulette(weights[:k], sumW, rnd)
}

func roulette(weights []float64, sumW float64, rnd Rand) int {
	r := rnd.Float64() * sumW
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// selectOverflow обрабатывает переполнение суммы весов (большая beta или
// совпадающие точки). Если есть бесконечные веса, выбор равномерный среди
// них, иначе веса нормируются на максимальный и работает обычная рулетка.
// Веса NaN не участвуют.
func selectOverflow(weights []float64, rnd Rand) int {
	var inf []int
	maxW := 0.0
	for i, w := range weights {
		switch {
		case math.IsInf(w, 1):
			inf = append(inf, i)
		case w > maxW:
			maxW = w
		}
	}
	if len(inf) > 0 {
		return inf[rnd.Intn(len(inf))]
	}

	sumW := 0.0
	for i, w := range weights {
		if math.IsNaN(w) {
			w = 0
		}
		w /= maxW
		weights[i] = w
		sumW += w
	}
	return roulette(weights, sumW, rnd)
}

// constructTour строит открытый путь ровно по n точкам, начиная со start.
func constructTour(
	start int,
	n int,
	field Field,
	dist *mat.SymDense,
	alpha float64,
	beta float64,
	rnd Rand,
) []int {
	tour := make([]int, 0, n)
	tour = append(tour, start)

	unvisited := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != start {
			unvisited = append(unvisited, i)
		}
	}
	weights := make([]float64, len(unvisited))

	cur := start
	for len(unvisited) > 0 {
		idx := selectNext(cur, unvisited, field, dist, alpha, beta, rnd, weights)
		cur = unvisited[idx]
		tour = append(tour, cur)

		// Удаляем выбранную точку из списка доступных
		last := len(unvisited) - 1
		unvisited[idx] = unvisited[last]
		unvisited = unvisited[:last]
	}
	return tour
}

// fastPow - оптимизация для частых степеней.
// Таким образом избегаем вызова math.Pow в простых случаях.
func fastPow(x, p float64) float64 {
	if p == 0 {
		return 1.0
	}
	if p == 1 {
		return x
	}
	if p == 2 {
		return x * x
	}
	return math.Pow(x, p)
}
