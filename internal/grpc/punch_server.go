package grpcserver

import (
	"context"
	"log"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"timeClock/internal/apperr"
	"timeClock/internal/attendance"
	"timeClock/internal/auth"
	"timeClock/models"
)

// PunchServer implements PunchServiceServer for kiosks. The kiosk itself is
// authenticated by its JWT; the employee is identified by the session token
// the kiosk forwards in x-session-token.
type PunchServer struct {
	Guard      *auth.Guard
	Attendance *attendance.Service
}

// resolveEmployee checks the kiosk principal and resolves the forwarded session.
func (s *PunchServer) resolveEmployee(ctx context.Context) (*auth.Principal, auth.AuthContext, error) {
	p, err := auth.RequireKiosk(ctx)
	if err != nil {
		return nil, auth.AuthContext{}, err
	}
	ac, err := s.Guard.Resolve(ctx, auth.SessionTokenFromMD(ctx))
	if err != nil {
		return nil, auth.AuthContext{}, toStatus(err)
	}
	return p, ac, nil
}

func (s *PunchServer) CheckIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.punch(ctx, req, false)
}

func (s *PunchServer) CheckOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.punch(ctx, req, true)
}

func (s *PunchServer) punch(ctx context.Context, req *structpb.Struct, checkOut bool) (*structpb.Struct, error) {
	p, ac, err := s.resolveEmployee(ctx)
	if err != nil {
		return nil, err
	}
	period, err := stringField(req, "period")
	if err != nil {
		return nil, err
	}
	do := s.Attendance.CheckIn
	if checkOut {
		do = s.Attendance.CheckOut
	}
	res, err := do(ctx, ac, period)
	if err != nil {
		return nil, toStatus(err)
	}
	log.Printf("kiosk %s: %s for user %d (%s %s)", p.Name, res.Message(checkOut), ac.UserID, res.WorkDate, res.Period)
	return structpb.NewStruct(map[string]any{
		"message":   res.Message(checkOut),
		"work_date": res.WorkDate,
		"period":    res.Period,
		"time":      res.At.Format(models.TimestampLayout),
	})
}

// Today returns the caller's present periods as flat {period}_check_in_time /
// {period}_check_out_time fields.
func (s *PunchServer) Today(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	_, ac, err := s.resolveEmployee(ctx)
	if err != nil {
		return nil, err
	}
	sheet, err := s.Attendance.Today(ctx, ac)
	if err != nil {
		return nil, toStatus(err)
	}
	fields := make(map[string]any, 2*len(sheet.Periods))
	for _, pp := range sheet.Periods {
		fields[pp.Period+"_check_in_time"] = timestampOrNil(pp.CheckIn)
		fields[pp.Period+"_check_out_time"] = timestampOrNil(pp.CheckOut)
	}
	return structpb.NewStruct(fields)
}

func timestampOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(models.TimestampLayout)
}

// stringField reads an optional string field from req.
func stringField(req *structpb.Struct, name string) (string, error) {
	if req == nil {
		return "", nil
	}
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return strings.TrimSpace(v.GetStringValue()), nil
	default:
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
}

// toStatus maps the error taxonomy onto gRPC status codes.
func toStatus(err error) error {
	switch apperr.Kind(err) {
	case apperr.ErrUnauthenticated, apperr.ErrSessionExpired:
		return status.Error(codes.Unauthenticated, err.Error())
	case apperr.ErrForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case apperr.ErrInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case apperr.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	default:
		log.Printf("grpc request failed: %v", err)
		return status.Error(codes.Internal, "store failure")
	}
}
