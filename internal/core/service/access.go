package service

import (
	"context"
	"errors"

	"github.com/moneyjar/jarledger/internal/core/domain"
	"github.com/moneyjar/jarledger/internal/core/ports"
)

// resolveJar loads a jar and checks the actor's access to it.
//
// Owners always pass. Accepted members pass for reads; writes additionally
// require an editor role. A viewer attempting a write gets ErrForbidden;
// anyone without a membership gets ErrJarNotFound so the jar's existence is
// not leaked.
func resolveJar(
	ctx context.Context,
	jars ports.JarRepository,
	members ports.MemberRepository,
	jarID, actorID string,
	forWrite bool,
) (*domain.Jar, error) {
	jar, err := jars.FindByID(ctx, jarID)
	if err != nil {
		return nil, err
	}
	if jar.OwnerID == actorID {
		return jar, nil
	}

	m, err := members.FindByJarAndUser(ctx, jarID, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrJarNotFound
		}
		return nil, err
	}
	if !m.Accepted() {
		return nil, domain.ErrJarNotFound
	}
	if forWrite && !domain.RoleCanEdit(m.Role) {
		return nil, domain.ErrForbidden
	}
	return jar, nil
}
