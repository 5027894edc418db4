package common

type Module string

const (
	ModuleTokenSale Module = "tokensale"
)

func (m Module) String() string {
	return string(m)
}
