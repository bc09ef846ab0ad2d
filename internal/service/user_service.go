package service

import (
	"context"

	"pedidos-taller/internal/authz"
	"pedidos-taller/internal/dto"

	"github.com/rs/zerolog/log"
)

// UserService cubre la administración mínima de usuarios: listar y
// desactivar. Las credenciales son asunto del servicio de identidad.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]dto.UsuarioDTO, error) {
	if !authz.Allowed(actor.Rol, false, authz.ActionManageUsers) {
		return nil, ErrForbidden
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.UsuarioDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UsuarioDTO{
			ID:     u.ID.Hex(),
			Nombre: u.Nombre,
			Email:  u.Email,
			Rol:    u.Rol,
			Active: u.Active,
		})
	}
	return out, nil
}

// Deactivate es una baja blanda: el usuario queda inactivo y sus órdenes
// no se tocan.
func (s *UserService) Deactivate(ctx context.Context, actor authz.Actor, id string) error {
	if !authz.Allowed(actor.Rol, false, authz.ActionManageUsers) {
		return ErrForbidden
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	log.Info().Str("usuario", id).Str("admin", actor.ID).Msg("usuario desactivado")
	return nil
}
