package approval

import (
	"testing"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
)

func TestHasQuorum(t *testing.T) {
	req := &ApprovalRequest{Quorum: 2}
	cases := map[string]struct {
		votes int
		want  bool
	}{
		"no votes":       {0, false},
		"one short":      {1, false},
		"exactly quorum": {2, true},
		"over quorum":    {3, true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := hasQuorum(req, tc.votes); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	critical := &ApprovalRequest{
		Tier: attest.TierCritical,
		RequiredApprovers: []ApproverSlot{
			{Role: attest.RoleAdmin},
			{Role: attest.RoleAdmin},
			{Role: attest.RoleValidator},
		},
	}
	bound := &ApprovalRequest{
		Tier: attest.TierGeneral,
		RequiredApprovers: []ApproverSlot{
			{Role: attest.RoleReviewer, AssignedID: "VVB-001"},
		},
	}
	vote := func(id string, role attest.Role) *ApprovalRecord {
		return &ApprovalRecord{RequestID: "req_x", ApproverID: id, Role: role, Timestamp: 1}
	}

	cases := map[string]struct {
		req      *ApprovalRequest
		records  []*ApprovalRecord
		approver string
		role     attest.Role
		wantErr  bool
	}{
		"first admin may vote": {
			req: critical, approver: "VVB_ADMIN_1", role: attest.RoleAdmin,
		},
		"second admin may vote": {
			req:      critical,
			records:  []*ApprovalRecord{vote("VVB_ADMIN_1", attest.RoleAdmin)},
			approver: "VVB_ADMIN_2", role: attest.RoleAdmin,
		},
		"third admin has no seat left": {
			req: critical,
			records: []*ApprovalRecord{
				vote("VVB_ADMIN_1", attest.RoleAdmin),
				vote("VVB_ADMIN_2", attest.RoleAdmin),
			},
			approver: "VVB_ADMIN_3", role: attest.RoleAdmin,
			wantErr: true,
		},
		"re-voting is not a violation": {
			req:      critical,
			records:  []*ApprovalRecord{vote("VVB_ADMIN_1", attest.RoleAdmin)},
			approver: "VVB_ADMIN_1", role: attest.RoleAdmin,
		},
		"role without a seat": {
			req: critical, approver: "VVB-001", role: attest.RoleReviewer,
			wantErr: true,
		},
		"assigned body may vote": {
			req: bound, approver: "VVB-001", role: attest.RoleReviewer,
		},
		"another body on a bound slot": {
			req: bound, approver: "VVB-002", role: attest.RoleReviewer,
			wantErr: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := authorize(tc.req, tc.records, tc.approver, tc.role)
			if tc.wantErr {
				if !errors.ErrUnauthorized.Is(err) {
					t.Fatalf("want ErrUnauthorized, got %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
