package identity

import "testing"

func TestTierRanksAreStrictlyAscending(t *testing.T) {
	tiers := Tiers()
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Rank() <= tiers[i-1].Rank() {
			t.Fatalf("tier %s rank %d not above %s rank %d", tiers[i], tiers[i].Rank(), tiers[i-1], tiers[i-1].Rank())
		}
	}
}

func TestUnknownTierRanksZero(t *testing.T) {
	if got := Tier("platinum").Rank(); got != 0 {
		t.Fatalf("unknown tier rank = %d, want 0", got)
	}
	if Tier("platinum").Valid() {
		t.Fatalf("unknown tier reported valid")
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleRider, RoleDriver, RoleFleet, RoleConcierge, RoleAdmin} {
		if !role.Valid() {
			t.Fatalf("role %s reported invalid", role)
		}
	}
	if Role("dispatcher").Valid() {
		t.Fatalf("unknown role reported valid")
	}
}

func TestSatisfies(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		req  Requirement
		want bool
	}{
		{
			name: "tier at requirement",
			p:    Principal{Tier: TierVIP},
			req:  Requirement{MinRank: TierVIP.Rank()},
			want: true,
		},
		{
			name: "tier above requirement",
			p:    Principal{Tier: TierAdmin},
			req:  Requirement{MinRank: TierPremium.Rank()},
			want: true,
		},
		{
			name: "tier below requirement",
			p:    Principal{Tier: TierPremium},
			req:  Requirement{MinRank: TierVIP.Rank()},
			want: false,
		},
		{
			name: "mfa required and missing",
			p:    Principal{Tier: TierVIP},
			req:  Requirement{MinRank: TierVIP.Rank(), MFARequired: true},
			want: false,
		},
		{
			name: "mfa required and verified",
			p:    Principal{Tier: TierVIP, MFAVerified: true},
			req:  Requirement{MinRank: TierVIP.Rank(), MFARequired: true},
			want: true,
		},
		{
			name: "unknown tier never satisfies",
			p:    Principal{Tier: Tier("gold")},
			req:  Requirement{MinRank: TierNormal.Rank()},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Satisfies(tc.p, tc.req); got != tc.want {
				t.Fatalf("Satisfies = %v, want %v", got, tc.want)
			}
		})
	}
}
