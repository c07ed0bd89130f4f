package aco

import "gonum.org/v1/gonum/mat"

// pheromoneFloor - нижняя граница феромона вне диагонали.
const pheromoneFloor = 1e-12

// Tour - маршрут одного муравья и его полная стоимость.
type Tour struct {
	Path []int
	Cost float64
}

// Field - симметричная матрица феромонов. Все операции возвращают новое
// состояние и не изменяют исходное.
type Field struct {
	tau *mat.SymDense
}

// NewField заполняет всё кроме диагонали значением initial.
func NewField(n int, initial float64) Field {
	tau := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			tau.SetSym(i, j, initial)
		}
	}
	return Field{tau: tau}
}

func (f Field) Size() int {
	n, _ := f.tau.Dims()
	return n
}

func (f Field) At(i, j int) float64 {
	return f.tau.At(i, j)
}

func (f Field) clone() *mat.SymDense {
	c := mat.NewSymDense(f.Size(), nil)
	c.CopySym(f.tau)
	return c
}

// Evaporate умножает феромон на (1-rate) с ограничением снизу.
func (f Field) Evaporate(rate float64) Field {
	tau := f.clone()
	evaporate(tau, rate)
	return Field{tau: tau}
}

// Deposit добавляет Q/cost вдоль каждого маршрута.
func (f Field) Deposit(tours []Tour, q float64) Field {
	tau := f.clone()
	deposit(tau, tours, q)
	return Field{tau: tau}
}

// ElitistBonus добавляет (Q/bestCost)*weight вдоль лучшего маршрута.
func (f Field) ElitistBonus(best Tour, q, weight float64) Field {
	tau := f.clone()
	elitistBonus(tau, best, q, weight)
	return Field{tau: tau}
}

// Update - полный переход состояния за итерацию:
// испарение, отложение от всех муравьёв, элитный бонус.
func (f Field) Update(rate, q, elitistWeight float64, tours []Tour, best Tour) Field {
	tau := f.clone()
	evaporate(tau, rate)
	deposit(tau, tours, q)
	elitistBonus(tau, best, q, elitistWeight)
	return Field{tau: tau}
}

func deposit(tau *mat.SymDense, tours []Tour, q float64) {
	for _, t := range tours {
		addPheromonePath(tau, t.Path, depositAmount(q, t.Cost))
	}
}

func elitistBonus(tau *mat.SymDense, best Tour, q, weight float64) {
	if weight <= 0 || len(best.Path) == 0 {
		return
	}
	addPheromonePath(tau, best.Path, depositAmount(q, best.Cost)*weight)
}

func depositAmount(q, cost float64) float64 {
	if cost <= 0 {
		return q
	}
	return q / cost
}

func evaporate(tau *mat.SymDense, rate float64) {
	n, _ := tau.Dims()
	keep := 1.0 - rate
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := tau.At(i, j) * keep
			if v < pheromoneFloor {
				v = pheromoneFloor
			}
			tau.SetSym(i, j, v)
		}
	}
}

// addPheromonePath усиливает феромон вдоль открытого пути.
// Матрица симметрична, поэтому обновляются оба направления ребра.
func addPheromonePath(tau *mat.SymDense, path []int, delta float64) {
	for i := 0; i < len(path)-1; i++ {
		from, to := path[i], path[i+1]
		tau.SetSym(from, to, tau.At(from, to)+delta)
	}
}
