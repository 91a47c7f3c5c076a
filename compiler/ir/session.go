package ir

type (
	// Session carries counters shared by one compilation of one module.
	Session struct {
		Module *Module

		nextTemp int
	}
)

// NewSession scans every function of m so temporaries it mints
// never collide with ids already in use anywhere in the module.
func NewSession(m *Module) *Session {
	s := &Session{Module: m}

	see := func(o Operand) {
		if o.Kind == KindTemp && o.ID >= s.nextTemp {
			s.nextTemp = o.ID + 1
		}
	}

	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for _, x := range b.Instrs {
				see(x.Result)
				see(x.Arg1)
				see(x.Arg2)
			}
		}
	}

	return s
}

func (s *Session) NewTemp() Operand {
	id := s.nextTemp
	s.nextTemp++

	return Temp(id)
}
