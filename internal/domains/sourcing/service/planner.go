package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/sourcing/model"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
)

// PlanInput is everything the planner looks at. Candidates are passed in so
// the planner never touches storage.
type PlanInput struct {
	ProductID    uuid.UUID
	Quantity     int
	DeliveryCity string
	Warehouses   []stockModel.WarehouseStock
	Offers       []supplierModel.Offer
}

type localCandidate struct {
	stock stockModel.WarehouseStock
	days  int
	hub   int // index in favored hubs, -1 when not favored
}

// BuildPlan computes an allocation plan. Line quantities sum to
// min(requested, local+import capacity).
func BuildPlan(in PlanInput, opts model.Options) (*model.Plan, error) {
	if in.ProductID == uuid.Nil {
		return nil, model.ErrMissingProduct
	}
	if in.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity.WithDetail("got %d", in.Quantity)
	}

	var (
		locals      []localCandidate
		offers      []supplierModel.Offer
		localTotal  int
		importTotal int
	)
	for _, ws := range in.Warehouses {
		if ws.Available <= 0 || !ws.Warehouse.IsActive {
			continue
		}
		days := opts.OtherCityDays
		if ws.Warehouse.SameCity(in.DeliveryCity) {
			days = opts.SameCityDays
		}
		locals = append(locals, localCandidate{stock: ws, days: days, hub: hubIndex(ws.Warehouse.City, opts.FavoredHubs)})
		localTotal += ws.Available
	}
	for _, o := range in.Offers {
		if o.Item.AvailableQuantity <= 0 || !o.Item.IsActive || !o.Supplier.IsActive {
			continue
		}
		offers = append(offers, o)
		importTotal += o.Item.AvailableQuantity
	}

	plan := &model.Plan{
		ProductID:         in.ProductID,
		RequestedQuantity: in.Quantity,
		LocalAvailable:    localTotal,
		ImportAvailable:   importTotal,
		TotalAvailable:    localTotal + importTotal,
		ImportCost:        decimal.Zero,
	}

	if plan.TotalAvailable == 0 {
		plan.SourceType = requestModel.SourceLocal
		plan.Explanation = "No stock available"
		return plan, nil
	}

	sortOffers(offers)

	speedPick := false
	var localMaxDays, importMinDays int
	if len(locals) > 0 && len(offers) > 0 {
		for _, l := range locals {
			localMaxDays = max(localMaxDays, l.days)
		}
		importMinDays = offers[0].LeadTimeDays()
		speedPick = importMinDays < localMaxDays && importTotal >= in.Quantity
	}

	remaining := in.Quantity
	if speedPick {
		remaining = allocateOffers(plan, offers, remaining)
	} else {
		sortLocals(locals)
		for _, l := range locals {
			if remaining == 0 {
				break
			}
			take := min(l.stock.Available, remaining)
			plan.Lines = append(plan.Lines, model.Line{
				SourceType:    reservationModel.SourceWarehouse,
				SourceID:      l.stock.Warehouse.ID,
				SourceName:    l.stock.Warehouse.Name,
				City:          l.stock.Warehouse.City,
				Quantity:      take,
				EstimatedDays: l.days,
			})
			remaining -= take
		}
		remaining = allocateOffers(plan, offers, remaining)
	}

	for _, l := range plan.Lines {
		plan.EstimatedDays = max(plan.EstimatedDays, l.EstimatedDays)
	}
	plan.CanFulfill = remaining == 0
	plan.SourceType, plan.Explanation = describe(plan, speedPick, importMinDays, localMaxDays)
	return plan, nil
}

func allocateOffers(plan *model.Plan, offers []supplierModel.Offer, remaining int) int {
	for _, o := range offers {
		if remaining == 0 {
			break
		}
		take := min(o.Item.AvailableQuantity, remaining)
		price := o.Item.UnitPrice
		plan.Lines = append(plan.Lines, model.Line{
			SourceType:    reservationModel.SourceSupplier,
			SourceID:      o.Supplier.ID,
			SourceName:    o.Supplier.Name,
			City:          o.Supplier.City,
			Quantity:      take,
			EstimatedDays: o.LeadTimeDays(),
			UnitPrice:     &price,
		})
		plan.ImportCost = plan.ImportCost.Add(price.Mul(decimal.NewFromInt(int64(take))))
		remaining -= take
	}
	return remaining
}

// sortOffers orders suppliers by lead time, then by larger stock.
func sortOffers(offers []supplierModel.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		if a, b := offers[i].LeadTimeDays(), offers[j].LeadTimeDays(); a != b {
			return a < b
		}
		if a, b := offers[i].Item.AvailableQuantity, offers[j].Item.AvailableQuantity; a != b {
			return a > b
		}
		return offers[i].Supplier.ID.String() < offers[j].Supplier.ID.String()
	})
}

// sortLocals puts favored hubs first in configured order, then the largest stock.
func sortLocals(locals []localCandidate) {
	sort.SliceStable(locals, func(i, j int) bool {
		a, b := locals[i], locals[j]
		switch {
		case a.hub >= 0 && b.hub >= 0 && a.hub != b.hub:
			return a.hub < b.hub
		case a.hub >= 0 && b.hub < 0:
			return true
		case a.hub < 0 && b.hub >= 0:
			return false
		}
		if a.stock.Available != b.stock.Available {
			return a.stock.Available > b.stock.Available
		}
		return a.stock.Warehouse.ID.String() < b.stock.Warehouse.ID.String()
	})
}

func hubIndex(city string, hubs []string) int {
	c := strings.TrimSpace(city)
	for i, h := range hubs {
		if c != "" && strings.EqualFold(c, strings.TrimSpace(h)) {
			return i
		}
	}
	return -1
}

func describe(plan *model.Plan, speedPick bool, importMinDays, localMaxDays int) (requestModel.SourceType, string) {
	var local, imported, warehouses, suppliers int
	for _, l := range plan.Lines {
		if l.SourceType == reservationModel.SourceWarehouse {
			local += l.Quantity
			warehouses++
		} else {
			imported += l.Quantity
			suppliers++
		}
	}
	allocated := local + imported
	localPct := local * 100 / allocated
	importPct := 100 - localPct

	var (
		kind requestModel.SourceType
		text string
	)
	switch {
	case speedPick:
		kind = requestModel.SourceImport
		text = fmt.Sprintf("Import selected for speed: supplier lead time %dd beats local %dd (100%% import)",
			importMinDays, localMaxDays)
	case imported == 0:
		kind = requestModel.SourceLocal
		text = fmt.Sprintf("All %d units sourced locally from %d warehouse(s) (100%% local)", local, warehouses)
	case local == 0:
		kind = requestModel.SourceImport
		text = fmt.Sprintf("No local stock available; %d units imported from %d supplier(s) (100%% import)",
			imported, suppliers)
	default:
		kind = requestModel.SourceMixed
		text = fmt.Sprintf("Local stock covers %d%% (%d of %d); remaining %d from suppliers (%d%% local / %d%% import)",
			local*100/plan.RequestedQuantity, local, plan.RequestedQuantity, imported, localPct, importPct)
	}

	if !plan.CanFulfill {
		text += fmt.Sprintf(". Insufficient stock: only %d of %d units available", allocated, plan.RequestedQuantity)
	}
	return kind, text
}
