package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// Pure roll-ups over the full transfer table. These never mutate their input;
// the stats service layers caching and role gating on top.

// BranchValue pairs a branch with a summed transfer value.
type BranchValue struct {
	Branch string          `json:"branch"`
	Value  decimal.Decimal `json:"value"`
}

// BranchCount pairs a branch with its transfer count, the bar-chart feed.
type BranchCount struct {
	Branch string `json:"branch"`
	Count  int    `json:"count"`
}

// Overview is the KPI snapshot shown to every authenticated role.
type Overview struct {
	TotalTransfers     int                            `json:"total_transfers"`
	StatusCounts       map[domain.TransferStatus]int  `json:"status_counts"`
	TopSender          *BranchValue                   `json:"top_sender,omitempty"`
	TopReceiver        *BranchValue                   `json:"top_receiver,omitempty"`
	TotalValueSent     decimal.Decimal                `json:"total_value_sent"`
	TotalValueReceived decimal.Decimal                `json:"total_value_received"`
}

const (
	overdueAfter      = 7 * 24 * time.Hour
	pendingBacklogMax = 15
)

func computeOverview(transfers []domain.Transfer) Overview {
	overview := Overview{
		TotalTransfers:     len(transfers),
		StatusCounts:       make(map[domain.TransferStatus]int),
		TotalValueSent:     decimal.Zero,
		TotalValueReceived: decimal.Zero,
	}

	sentByBranch := make(map[string]decimal.Decimal)
	receivedByBranch := make(map[string]decimal.Decimal)

	for _, transfer := range transfers {
		overview.StatusCounts[transfer.Status]++
		sentByBranch[transfer.FromBranch] = sentByBranch[transfer.FromBranch].Add(transfer.Value)
		receivedByBranch[transfer.ToBranch] = receivedByBranch[transfer.ToBranch].Add(transfer.Value)

		// SENT is legacy but still counts toward value in motion.
		switch transfer.Status {
		case domain.StatusSent, domain.StatusPickedUp:
			overview.TotalValueSent = overview.TotalValueSent.Add(transfer.Value)
		case domain.StatusReceived:
			overview.TotalValueReceived = overview.TotalValueReceived.Add(transfer.Value)
		}
	}

	overview.TopSender = maxBranchValue(sentByBranch)
	overview.TopReceiver = maxBranchValue(receivedByBranch)
	return overview
}

func maxBranchValue(values map[string]decimal.Decimal) *BranchValue {
	branches := make([]string, 0, len(values))
	for branch := range values {
		branches = append(branches, branch)
	}
	sort.Strings(branches)

	var top *BranchValue
	for _, branch := range branches {
		value := values[branch]
		if top == nil || value.GreaterThan(top.Value) {
			top = &BranchValue{Branch: branch, Value: value}
		}
	}
	return top
}

func computeBranchCounts(transfers []domain.Transfer) []BranchCount {
	counts := make(map[string]int)
	for _, transfer := range transfers {
		counts[transfer.FromBranch]++
	}

	result := make([]BranchCount, 0, len(counts))
	for branch, count := range counts {
		result = append(result, BranchCount{Branch: branch, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Branch < result[j].Branch
	})
	return result
}

// computeAlerts produces the advisory alert strings: overdue transfers,
// overloaded destination branches and the warehouse backlog. Alerts are
// recomputed on every call and never persisted.
func computeAlerts(transfers []domain.Transfer, now time.Time) []string {
	alerts := []string{}

	overdue := 0
	warehouse := 0
	pendingByBranch := make(map[string]int)
	for _, transfer := range transfers {
		if transfer.Status != domain.StatusReceived && now.Sub(transfer.CreatedDate) > overdueAfter {
			overdue++
		}
		if transfer.Status == domain.StatusPendingWarehouse {
			warehouse++
		}
		if transfer.Status == domain.StatusPending {
			pendingByBranch[transfer.ToBranch]++
		}
	}

	if overdue > 0 {
		alerts = append(alerts, fmt.Sprintf("%d transfer(s) pending for over 7 days", overdue))
	}

	overloaded := make([]string, 0, len(pendingByBranch))
	for branch, count := range pendingByBranch {
		if count > pendingBacklogMax {
			overloaded = append(overloaded, branch)
		}
	}
	sort.Strings(overloaded)
	for _, branch := range overloaded {
		alerts = append(alerts, fmt.Sprintf("branch %s has %d pending transfers", branch, pendingByBranch[branch]))
	}

	if warehouse > 0 {
		alerts = append(alerts, fmt.Sprintf("%d transfer(s) pending at warehouse", warehouse))
	}
	return alerts
}
