package session

import (
	"fmt"

	"github.com/park285/cheese-desk/internal/domain"
)

// Messages formats terminal messages.
type Messages interface {
	Victory(winner domain.Color) string
	Stalemate() string
}

type plainMessages struct{}

func (plainMessages) Victory(winner domain.Color) string { return fmt.Sprintf("%s wins!", winner) }
func (plainMessages) Stalemate() string                  { return "Stalemate!" }
