package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/gateway"
	"zerodha-roast/internal/kite"
)

// addTradingCommands adds order commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newOrderCmd(app))
	rootCmd.AddCommand(newPlaceCmd(app))
}

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List today's orders",
		Example: `  roast orders
  roast orders --filter pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			raw, _ := cmd.Flags().GetString("filter")
			filter, ok := kite.ParseOrderFilter(strings.ToLower(strings.TrimSpace(raw)))
			if !ok {
				return gwerrors.InvalidRequest(gateway.OpOrders, gateway.MsgInvalidFilter, nil)
			}

			orders, err := app.Service().FetchOrders(cmd.Context(), credentials(cmd), filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(orders)
			}
			displayOrders(output, orders)
			return nil
		},
	}
	cmd.Flags().String("filter", "", "all, pending, complete or rejected")
	return cmd
}

func displayOrders(output *Output, orders []kite.Order) {
	if len(orders) == 0 {
		output.Info("No orders")
		return
	}

	table := NewTable(output, "Order ID", "Time", "Symbol", "Side", "Type", "Qty", "Filled", "Price", "Status")
	for _, o := range orders {
		table.AddRow(
			o.OrderID,
			o.OrderTimestamp,
			o.Exchange+":"+o.Tradingsymbol,
			o.TransactionType,
			o.OrderType,
			FormatQuantity(int64(o.Quantity)),
			FormatQuantity(int64(o.FilledQuantity)),
			orderPrice(o),
			output.Status(string(o.Status)),
		)
	}
	table.Render()
}

func orderPrice(o kite.Order) string {
	if !o.AveragePrice.IsZero() {
		return FormatPrice(o.AveragePrice)
	}
	if !o.Price.IsZero() {
		return FormatPrice(o.Price)
	}
	return "MKT"
}

func newOrderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "order <order-id>",
		Short: "Show one order and its state history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			detail, err := app.Service().FetchOrder(cmd.Context(), credentials(cmd), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"order":   detail.Order,
					"history": detail.History,
				})
			}

			o := detail.Order
			output.Bold("Order %s", o.OrderID)
			output.Printf("  Symbol:  %s:%s\n", o.Exchange, o.Tradingsymbol)
			output.Printf("  Side:    %s %s %s\n", o.TransactionType, o.OrderType, o.Product)
			output.Printf("  Qty:     %d (filled %d, pending %d)\n", o.Quantity, o.FilledQuantity, o.PendingQuantity)
			output.Printf("  Price:   %s\n", orderPrice(o))
			output.Printf("  Status:  %s\n", output.Status(string(o.Status)))
			if o.StatusMessage != "" {
				output.Printf("  Message: %s\n", o.StatusMessage)
			}
			output.Println()

			table := NewTable(output, "Time", "Status", "Filled")
			for _, h := range detail.History {
				table.AddRow(h.OrderTimestamp, output.Status(string(h.Status)), FormatQuantity(int64(h.FilledQuantity)))
			}
			table.Render()
			return nil
		},
	}
}

func newPlaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place <BUY|SELL> <symbol> <quantity>",
		Short: "Place a regular order",
		Long: `Place a regular order.

Without --price the order is a MARKET order. Product defaults to CNC and
validity to DAY. Nothing is placed when the gateway runs read-only.`,
		Example: `  roast place BUY INFY 10
  roast place SELL TCS 5 --price 4120.50
  roast place BUY RELIANCE 1 --type SL --price 2900 --trigger-price 2895`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			params, err := orderParamsFromFlags(cmd, args)
			if err != nil {
				return err
			}

			result, err := app.Service().PlaceOrder(cmd.Context(), credentials(cmd), params)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"order_id": result.OrderID,
					"message":  gateway.MsgOrderPlaced,
				})
			}
			output.Success("✓ %s", gateway.MsgOrderPlaced)
			output.Printf("  Order ID: %s\n", result.OrderID)
			return nil
		},
	}

	cmd.Flags().StringP("exchange", "e", kite.DefaultExchange, "Exchange (NSE, BSE)")
	cmd.Flags().String("type", "", "Order type (MARKET, LIMIT, SL, SL-M)")
	cmd.Flags().StringP("price", "p", "", "Limit price")
	cmd.Flags().String("trigger-price", "", "Trigger price for SL and SL-M")
	cmd.Flags().String("product", "", "Product (CNC, MIS, NRML)")
	cmd.Flags().String("validity", "", "Validity (DAY, IOC)")
	cmd.Flags().String("tag", "", "Order tag")

	return cmd
}

func orderParamsFromFlags(cmd *cobra.Command, args []string) (*kite.OrderParams, error) {
	var qty kite.Quantity
	if err := qty.UnmarshalJSON([]byte(args[2])); err != nil {
		return nil, gwerrors.InvalidRequest(gateway.OpPlaceOrder, err.Error(), gwerrors.ErrMissingParameters)
	}

	price, err := priceFlag(cmd, "price")
	if err != nil {
		return nil, err
	}
	trigger, err := priceFlag(cmd, "trigger-price")
	if err != nil {
		return nil, err
	}

	orderType, _ := cmd.Flags().GetString("type")
	if orderType == "" {
		orderType = "MARKET"
		if price.IsSet() {
			orderType = "LIMIT"
		}
	}

	exchange, _ := cmd.Flags().GetString("exchange")
	product, _ := cmd.Flags().GetString("product")
	validity, _ := cmd.Flags().GetString("validity")
	tag, _ := cmd.Flags().GetString("tag")

	return &kite.OrderParams{
		TransactionType: args[0],
		Tradingsymbol:   args[1],
		Quantity:        qty,
		Exchange:        exchange,
		OrderType:       orderType,
		Product:         product,
		Validity:        validity,
		Price:           price,
		TriggerPrice:    trigger,
		Tag:             tag,
	}, nil
}

func priceFlag(cmd *cobra.Command, name string) (kite.OptionalPrice, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return kite.OptionalPrice{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return kite.OptionalPrice{}, gwerrors.InvalidRequest(gateway.OpPlaceOrder,
			fmt.Sprintf("invalid --%s %q", name, raw), err)
	}
	return kite.NewPrice(d), nil
}
