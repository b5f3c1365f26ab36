package integrators

// Verlet is velocity Verlet.
type Verlet struct {
	scratch State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(f System, x State, t, dt float64) (State, error) {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(State, n)
	}

	result := make(State, n)
	dx := f(x, t)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
	}

	for i := 0; i < half; i++ {
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := f(v.scratch, t+dt)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}

	return checked(result)
}

// Leapfrog is kick-drift-kick leapfrog.
type Leapfrog struct {
	scratch State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(f System, x State, t, dt float64) (State, error) {
	n := len(x)
	half := n / 2

	if len(l.scratch) != n {
		l.scratch = make(State, n)
	}

	result := make(State, n)
	dx := f(x, t)
	halfDt := dt * 0.5

	for i := 0; i < half; i++ {
		l.scratch[half+i] = x[half+i] + dx[half+i]*halfDt
	}

	for i := 0; i < half; i++ {
		result[i] = x[i] + l.scratch[half+i]*dt
		l.scratch[i] = result[i]
	}

	dxNew := f(l.scratch, t+dt)

	for i := 0; i < half; i++ {
		result[half+i] = l.scratch[half+i] + dxNew[half+i]*halfDt
	}

	return checked(result)
}
