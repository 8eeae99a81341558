package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
	"github.com/joshhighet/r7/pkg/query"
)

//go:embed examples/leql.md
var leqlReference embed.FS

var siemLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Log search and LEQL queries",
}

// statRow is one flattened group from a LEQL groupby result.
type statRow struct {
	group   string
	metrics map[string]float64
}

// metricsDict reports whether a decoded JSON value is a non-empty object
// holding only numeric values, the shape LEQL uses for group metrics.
func metricsDict(v any) (map[string]float64, bool) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}
	out := make(map[string]float64, len(obj))
	for k, val := range obj {
		n, ok := val.(float64)
		if !ok {
			return nil, false
		}
		out[k] = n
	}
	return out, true
}

// cleanGroupKey rewrites a multi-key group label "[a, b]" as "a | b".
func cleanGroupKey(k string) string {
	if strings.HasPrefix(k, "[") && strings.HasSuffix(k, "]") {
		parts := strings.Split(k[1:len(k)-1], ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return strings.Join(parts, " | ")
	}
	return k
}

// flattenGroupStatistics flattens the statistics.groups tree into one row
// per leaf group, supporting single and nested groupby shapes. Returns
// the rows and the union of metric names, sorted.
func flattenGroupStatistics(groups []any) ([]statRow, []string) {
	var rows []statRow
	metricKeys := map[string]bool{}

	var rec func(node any, path []string)
	rec = func(node any, path []string) {
		if metrics, ok := metricsDict(node); ok {
			rows = append(rows, statRow{group: strings.Join(path, " / "), metrics: metrics})
			for k := range metrics {
				metricKeys[k] = true
			}
			return
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return
		}
		// Some shapes nest metrics under a totals object.
		if metrics, ok := metricsDict(obj["totals"]); ok {
			rows = append(rows, statRow{group: strings.Join(path, " / "), metrics: metrics})
			for k := range metrics {
				metricKeys[k] = true
			}
			return
		}
		for k, v := range obj {
			child := make([]string, len(path)+1)
			copy(child, path)
			child[len(path)] = k
			rec(v, child)
		}
	}

	for _, entry := range groups {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range obj {
			if metrics, ok := metricsDict(v); ok {
				rows = append(rows, statRow{group: cleanGroupKey(k), metrics: metrics})
				for mk := range metrics {
					metricKeys[mk] = true
				}
			} else {
				rec(v, []string{k})
			}
		}
	}

	keys := make([]string, 0, len(metricKeys))
	for k := range metricKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return rows, keys
}

const maxGroupRows = 100

// renderGroupTable prints a table for groupby statistics. Returns false
// when the statistics carry no groups, letting the caller fall back to
// the global timeseries stats.
func renderGroupTable(p *format.Printer, statistics map[string]any, titleSuffix string) (bool, error) {
	groups, _ := statistics["groups"].([]any)
	if len(groups) == 0 {
		return false, nil
	}
	rows, metricKeys := flattenGroupStatistics(groups)
	if len(rows) == 0 {
		return false, nil
	}
	if len(metricKeys) == 0 {
		metricKeys = []string{"count"}
	}
	primary := metricKeys[0]
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].metrics[primary] > rows[j].metrics[primary]
	})

	headers := []string{"Group"}
	for _, mk := range metricKeys {
		headers = append(headers, capitalize(mk))
	}
	shown := rows
	if len(shown) > maxGroupRows {
		shown = shown[:maxGroupRows]
	}
	tableRows := make([][]string, 0, len(shown))
	for _, r := range shown {
		row := []string{r.group}
		for _, mk := range metricKeys {
			row = append(row, fmt.Sprintf("%.0f", r.metrics[mk]))
		}
		tableRows = append(tableRows, row)
	}
	title := "Group Results"
	if titleSuffix != "" {
		title += " - " + titleSuffix
	}
	if err := p.Table(title, headers, tableRows); err != nil {
		return true, err
	}
	if len(rows) > maxGroupRows {
		p.Dim("... and %d more groups (use --output json to see all)", len(rows)-maxGroupRows)
	}
	return true, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderStatistics prints groupby results when present, otherwise the
// global timeseries stats.
func renderStatistics(p *format.Printer, statistics map[string]any, titleSuffix string) error {
	rendered, err := renderGroupTable(p, statistics, titleSuffix)
	if err != nil || rendered {
		return err
	}
	global, _ := nested(statistics, "stats", "global_timeseries").(map[string]any)
	if len(global) == 0 {
		p.Warn("No statistics data to display")
		return nil
	}
	keys := make([]string, 0, len(global))
	for k := range global {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, format.Cell(global[k])})
	}
	return p.Table("Query Statistics", []string{"Stat", "Value"}, rows)
}

const maxEventRows = 50

// eventTimestamp renders the event timestamp as a readable time.
func eventTimestamp(event map[string]any) string {
	ms, ok := event["timestamp"].(float64)
	if !ok {
		return format.Cell(event["timestamp"])
	}
	return format.TimestampMillis(int64(ms))
}

// eventContent returns the raw message of an event truncated to maxChars,
// falling back to the whole event when there is no message field.
func eventContent(event map[string]any, maxChars int) string {
	content, _ := event["message"].(string)
	if content == "" {
		raw, _ := json.Marshal(event)
		content = string(raw)
	}
	if maxChars > 0 && len(content) > maxChars {
		content = content[:maxChars] + "..."
	}
	return content
}

// renderRawEvents prints events as a Time / Raw Log table capped for
// readability.
func renderRawEvents(p *format.Printer, events []map[string]any, title string, maxChars int) error {
	shown := events
	if len(shown) > maxEventRows {
		shown = shown[:maxEventRows]
	}
	rows := make([][]string, 0, len(shown))
	for _, event := range shown {
		rows = append(rows, []string{eventTimestamp(event), eventContent(event, maxChars)})
	}
	if err := p.Table(title, []string{"Time", "Raw Log"}, rows); err != nil {
		return err
	}
	if len(events) > maxEventRows {
		p.Dim("... and %d more events (use --output json to see all)", len(events)-maxEventRows)
	}
	return nil
}

// eventMessages extracts just the message of each event, decoding JSON
// payloads where possible. Used for the default (non-full) JSON output.
func eventMessages(events []map[string]any) []any {
	messages := make([]any, 0, len(events))
	for _, event := range events {
		message, _ := event["message"].(string)
		var parsed any
		if err := json.Unmarshal([]byte(message), &parsed); err == nil {
			messages = append(messages, parsed)
		} else {
			messages = append(messages, message)
		}
	}
	return messages
}

// writeQueryJSON emits either the full result or just the event messages.
func writeQueryJSON(p *format.Printer, result *insight.QueryResult, fullOutput bool) error {
	if fullOutput || len(result.Events) == 0 {
		return p.WriteJSON(result)
	}
	return p.WriteJSON(eventMessages(result.Events))
}

// queryFlags collects the time and paging flags shared by the query
// commands.
func queryFlags(cmd *cobra.Command) {
	cmd.Flags().String("time-range", "Last 30 days", "Relative time range")
	cmd.Flags().Int64("from", 0, "Start time, epoch milliseconds")
	cmd.Flags().Int64("to", 0, "End time, epoch milliseconds")
	cmd.Flags().Int("max-pages", 0, "Max result pages to fetch (overrides smart limit detection)")
	cmd.Flags().Bool("full-output", false, "Show complete JSON structure (default shows only events)")
}

func timeParamsFromFlags(cmd *cobra.Command) insight.TimeParams {
	timeRange, _ := cmd.Flags().GetString("time-range")
	from, _ := cmd.Flags().GetInt64("from")
	to, _ := cmd.Flags().GetInt64("to")
	if from > 0 && to > 0 {
		return insight.TimeParams{From: from, To: to}
	}
	return insight.TimeParams{TimeRange: timeRange}
}

// effectiveMaxPages applies smart paging when no explicit page count was
// given: a limit() clause in the query restricts how many pages we fetch.
func effectiveMaxPages(cmd *cobra.Command, p *format.Printer, leql string, cfg *config.Config) int {
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	if maxPages > 0 {
		return maxPages
	}
	pages := query.SmartMaxPages(leql, cfg.MaxResultPages)
	if limit, ok := query.ParseLEQLLimit(leql); ok && !p.JSON() {
		p.Dim("Detected LEQL limit(%d), using %d pages max", limit, pages)
	}
	return pages
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logs and their logsets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			logs, err := client.ListLogs(ctx)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(logs)
			}
			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				names := make([]string, 0, len(l.LogsetsInfo))
				for _, ls := range l.LogsetsInfo {
					names = append(names, ls.Name)
				}
				rows = append(rows, []string{
					format.Truncate(l.Name, 45),
					l.ID,
					orNA(strings.Join(names, ", ")),
				})
			}
			return p.Table(fmt.Sprintf("Logs (%d)", len(logs)), []string{"Name", "ID", "Logsets"}, rows)
		})
	},
}

var logsQueryCmd = &cobra.Command{
	Use:   "query <log-name-or-id> [leql]",
	Short: "Query a log with LEQL",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		leql := ""
		if len(args) > 1 {
			leql = args[1]
		}
		fullOutput, _ := cmd.Flags().GetBool("full-output")
		noSmartColumns, _ := cmd.Flags().GetBool("no-smart-columns")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			maxPages := effectiveMaxPages(cmd, p, leql, cfg)
			maxChars := cfg.MaxChars
			if cmd.Flags().Changed("max-chars") {
				maxChars, _ = cmd.Flags().GetInt("max-chars")
			}
			logID, err := client.ResolveLogID(ctx, args[0])
			if err != nil {
				return err
			}
			result, err := client.QueryLog(ctx, logID, leql, timeParamsFromFlags(cmd), maxPages, time.Duration(cfg.QueryTimeout)*time.Second)
			if err != nil {
				return err
			}
			if p.JSON() {
				return writeQueryJSON(p, result, fullOutput)
			}
			switch {
			case len(result.Events) > 0:
				useSmart := !noSmartColumns && cfg.SmartColumnsEnabled
				if useSmart {
					if err := renderSmartEvents(cmd, ctx, cfg, client, p, logID, args[0], result.Events, maxChars); err != nil {
						return err
					}
				} else if err := renderRawEvents(p, result.Events, "Query Results: "+args[0], maxChars); err != nil {
					return err
				}
				p.Dim("Retrieved %d events across %d pages", len(result.Events), maxPages)
				return nil
			case len(result.Statistics) > 0:
				return renderStatistics(p, result.Statistics, args[0])
			default:
				p.Warn("No results found")
				return nil
			}
		})
	},
}

// renderSmartEvents builds per-field columns from the log's topkeys and
// prints events with extracted values, falling back to the raw log table
// when no useful columns emerge.
func renderSmartEvents(cmd *cobra.Command, ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer, logID, logName string, events []map[string]any, maxChars int) error {
	maxCols := cfg.SmartColumnsMax
	if cmd.Flags().Changed("smart-columns-max") {
		maxCols, _ = cmd.Flags().GetInt("smart-columns-max")
	}
	if maxCols < 1 {
		maxCols = 1
	} else if maxCols > 10 {
		maxCols = 10
	}

	topkeys, err := client.TopKeysForLog(ctx, logID)
	if err != nil || len(topkeys) == 0 {
		return renderRawEvents(p, events, "Query Results: "+logName, maxChars)
	}
	keys := make([]format.TopKey, 0, len(topkeys))
	for _, tk := range topkeys {
		keys = append(keys, format.TopKey{Key: tk.Key, Weight: tk.Weight})
	}

	shown := events
	if len(shown) > maxEventRows {
		shown = shown[:maxEventRows]
	}
	sample := shown[0]
	sampleParsed := parseEventMessage(sample)
	columns := format.SmartColumns(keys, sampleParsed, sample, maxCols)
	if len(columns) == 0 {
		return renderRawEvents(p, events, "Query Results: "+logName, maxChars)
	}
	p.Dim("Using %d topkeys, creating %d smart columns", len(topkeys), len(columns))

	headers := []string{"Time"}
	for _, col := range columns {
		headers = append(headers, col.Display)
	}
	rows := make([][]string, 0, len(shown))
	for _, event := range shown {
		parsed := parseEventMessage(event)
		row := []string{eventTimestamp(event)}
		for _, col := range columns {
			if _, value, ok := format.ExtractFieldValue(col.Field, parsed, event); ok {
				row = append(row, value)
			} else {
				row = append(row, "-")
			}
		}
		rows = append(rows, row)
	}
	if err := p.Table("Query Results: "+logName, headers, rows); err != nil {
		return err
	}
	if len(events) > maxEventRows {
		p.Dim("... and %d more events (use --output json to see all)", len(events)-maxEventRows)
	}
	return nil
}

// parseEventMessage decodes a JSON-shaped event message, nil otherwise.
func parseEventMessage(event map[string]any) map[string]any {
	message, _ := event["message"].(string)
	if !strings.HasPrefix(message, "{") || !strings.HasSuffix(message, "}") {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(message), &parsed); err != nil {
		return nil
	}
	return parsed
}

var logsQueryLogsetCmd = &cobra.Command{
	Use:   "query-logset <logset-name-or-id> [leql]",
	Short: "Query an entire logset with LEQL",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		leql := ""
		if len(args) > 1 {
			leql = args[1]
		}
		fullOutput, _ := cmd.Flags().GetBool("full-output")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			maxPages := effectiveMaxPages(cmd, p, leql, cfg)
			result, err := client.QueryLogset(ctx, args[0], leql, timeParamsFromFlags(cmd), maxPages, time.Duration(cfg.QueryTimeout)*time.Second)
			if err != nil {
				return err
			}
			if p.JSON() {
				return writeQueryJSON(p, result, fullOutput)
			}
			switch {
			case len(result.Events) > 0:
				if err := renderRawEvents(p, result.Events, "Logset Query Results: "+args[0], cfg.MaxChars); err != nil {
					return err
				}
				p.Dim("Retrieved %d events across %d pages", len(result.Events), maxPages)
				return nil
			case len(result.Statistics) > 0:
				return renderStatistics(p, result.Statistics, args[0])
			default:
				p.Warn("No results found")
				return nil
			}
		})
	},
}

var logsQueryAllCmd = &cobra.Command{
	Use:   "query-all [leql]",
	Short: "Query all logsets at once with LEQL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leql := ""
		if len(args) > 0 {
			leql = args[0]
		}
		fullOutput, _ := cmd.Flags().GetBool("full-output")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			maxPages := effectiveMaxPages(cmd, p, leql, cfg)
			if !p.JSON() {
				p.Dim("Querying all logsets in your organization...")
			}
			result, err := client.QueryAllLogsets(ctx, leql, timeParamsFromFlags(cmd), maxPages, time.Duration(cfg.QueryTimeout)*time.Second)
			if err != nil {
				return err
			}
			if p.JSON() {
				return writeQueryJSON(p, result, fullOutput)
			}
			switch {
			case len(result.Events) > 0:
				if err := renderRawEvents(p, result.Events, "All Logsets Query Results", cfg.MaxChars); err != nil {
					return err
				}
				p.Dim("Retrieved %d events across %d pages", len(result.Events), maxPages)
				return nil
			case len(result.Statistics) > 0:
				return renderStatistics(p, result.Statistics, "all logsets")
			default:
				p.Warn("No results found")
				return nil
			}
		})
	},
}

var logsTopkeysCmd = &cobra.Command{
	Use:   "topkeys <log-name-or-id>",
	Short: "Show the most common keys for a log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			logID, err := client.ResolveLogID(ctx, args[0])
			if err != nil {
				return err
			}
			topkeys, err := client.TopKeysForLog(ctx, logID)
			if err != nil {
				return err
			}
			sort.SliceStable(topkeys, func(i, j int) bool { return topkeys[i].Weight > topkeys[j].Weight })
			if limit > 0 && len(topkeys) > limit {
				topkeys = topkeys[:limit]
			}
			if p.JSON() {
				return p.WriteJSON(map[string]any{"topkeys": topkeys})
			}
			if len(topkeys) == 0 {
				p.Warn("No key data found for this log")
				return nil
			}
			rows := make([][]string, 0, len(topkeys))
			for _, tk := range topkeys {
				rows = append(rows, []string{tk.Key, fmt.Sprintf("%.2f", tk.Weight)})
			}
			return p.Table("Top Keys: "+args[0], []string{"Key", "Weight"}, rows)
		})
	},
}

// usageWindow defaults the from/to dates to the last seven days.
func usageWindow(from, to string) (string, string, error) {
	if from == "" || to == "" {
		now := time.Now()
		return now.AddDate(0, 0, -7).Format("2006-01-02"), now.Format("2006-01-02"), nil
	}
	if !insight.ValidUsageDate(from) || !insight.ValidUsageDate(to) {
		return "", "", fmt.Errorf("dates must be in YYYY-MM-DD format")
	}
	return from, to, nil
}

var logsUsageCmd = &cobra.Command{
	Use:   "usage [log-key]",
	Short: "Show log ingestion usage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagFrom, _ := cmd.Flags().GetString("from")
		flagTo, _ := cmd.Flags().GetString("to")
		perLog, _ := cmd.Flags().GetBool("per-log")
		timeRange, _ := cmd.Flags().GetString("time-range")
		from, to, err := usageWindow(flagFrom, flagTo)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			switch {
			case len(args) == 1:
				return showLogUsage(ctx, client, p, args[0], from, to)
			case perLog:
				return showPerLogUsage(ctx, client, p, from, to, timeRange)
			default:
				return showTotalUsage(ctx, client, p, from, to)
			}
		})
	},
}

func showTotalUsage(ctx context.Context, client *insight.Client, p *format.Printer, from, to string) error {
	data, err := client.TotalUsage(ctx, from, to)
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.WriteJSON(data)
	}
	usage, _ := data["usage"].(map[string]any)
	if usage == nil {
		return p.WriteJSON(data)
	}
	daily := sliceOfMaps(usage["daily_usage"])
	var total int64
	for _, day := range daily {
		if n, ok := day["usage"].(float64); ok {
			total += int64(n)
		}
	}
	period, _ := usage["period"].(map[string]any)
	rows := [][]string{
		{"Period", fmt.Sprintf("%s to %s", orNA(str(period, "from")), orNA(str(period, "to")))},
		{"Total Usage", format.Bytes(total)},
		{"Days with Data", fmt.Sprintf("%d", len(daily))},
	}
	if len(daily) > 0 {
		rows = append(rows, []string{"Daily Average", format.Bytes(total / int64(len(daily)))})
	}
	return p.Table("Organization Log Usage", []string{"Metric", "Value"}, rows)
}

func showLogUsage(ctx context.Context, client *insight.Client, p *format.Printer, logKey, from, to string) error {
	data, err := client.LogUsage(ctx, logKey, from, to)
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.WriteJSON(data)
	}
	usage, _ := data["usage"].(map[string]any)
	if usage == nil {
		p.Warn("No usage data found for log %s in the specified period", logKey)
		return nil
	}
	daily := sliceOfMaps(usage["daily_usage"])
	if len(daily) == 0 {
		p.Warn("No daily usage data found for log %s", logKey)
		return nil
	}
	var total, peak int64
	for _, day := range daily {
		n, _ := day["usage"].(float64)
		total += int64(n)
		if int64(n) > peak {
			peak = int64(n)
		}
	}
	period, _ := usage["period"].(map[string]any)
	info := [][]string{
		{"Log ID", orNA(str(usage, "id"))},
		{"Period", fmt.Sprintf("%s to %s", orNA(str(period, "from")), orNA(str(period, "to")))},
		{"Total Usage", format.Bytes(total)},
		{"Daily Average", format.Bytes(total / int64(len(daily)))},
		{"Peak Day Usage", format.Bytes(peak)},
		{"Days with Data", fmt.Sprintf("%d", len(daily))},
	}
	if err := p.Table("Log Usage Details: "+logKey, []string{"Metric", "Value"}, info); err != nil {
		return err
	}
	sort.SliceStable(daily, func(i, j int) bool { return str(daily[i], "day") < str(daily[j], "day") })
	rows := make([][]string, 0, len(daily))
	for _, day := range daily {
		n, _ := day["usage"].(float64)
		pct := 0.0
		if total > 0 {
			pct = n / float64(total) * 100
		}
		rows = append(rows, []string{
			orNA(str(day, "day")),
			format.Bytes(int64(n)),
			fmt.Sprintf("%.1f%%", pct),
		})
	}
	return p.Table("Daily Usage Breakdown", []string{"Date", "Usage", "% of Total"}, rows)
}

func showPerLogUsage(ctx context.Context, client *insight.Client, p *format.Printer, from, to, timeRange string) error {
	data, err := client.PerLogUsage(ctx, from, to, timeRange)
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.WriteJSON(data)
	}
	perDay, _ := data["per_day_usage"].(map[string]any)
	totals := map[string]int64{}
	for _, day := range sliceOfMaps(perDay["usage"]) {
		for _, entry := range sliceOfMaps(day["log_usage"]) {
			id := str(entry, "id")
			n, _ := entry["usage"].(float64)
			if id != "" {
				totals[id] += int64(n)
			}
		}
	}
	if len(totals) == 0 {
		p.Warn("No per-log usage data found")
		return nil
	}
	names := map[string]string{}
	if logs, err := client.ListLogs(ctx); err == nil {
		for _, l := range logs {
			names[l.ID] = l.Name
		}
	}
	var grandTotal int64
	for _, n := range totals {
		grandTotal += n
	}
	type logTotal struct {
		id    string
		total int64
	}
	sorted := make([]logTotal, 0, len(totals))
	for id, n := range totals {
		sorted = append(sorted, logTotal{id, n})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].total > sorted[j].total })
	rows := make([][]string, 0, len(sorted))
	for _, lt := range sorted {
		name := names[lt.id]
		if name == "" {
			name = lt.id
		}
		pct := 0.0
		if grandTotal > 0 {
			pct = float64(lt.total) / float64(grandTotal) * 100
		}
		rows = append(rows, []string{
			format.Truncate(name, 45),
			lt.id,
			format.Bytes(lt.total),
			fmt.Sprintf("%.1f%%", pct),
		})
	}
	if err := p.Table("Per-Log Usage", []string{"Log", "ID", "Usage", "% of Total"}, rows); err != nil {
		return err
	}
	p.Dim("Total: %s across %d logs", format.Bytes(grandTotal), len(sorted))
	return nil
}

var logsLeqlCmd = &cobra.Command{
	Use:   "leql",
	Short: "Show the LEQL reference guide",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := leqlReference.ReadFile("examples/leql.md")
		if err != nil {
			return fmt.Errorf("leql reference unavailable: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(doc))
		return nil
	},
}

func init() {
	queryFlags(logsQueryCmd)
	logsQueryCmd.Flags().Bool("no-smart-columns", false, "Disable smart columns and show raw log content")
	logsQueryCmd.Flags().Int("smart-columns-max", 0, "Maximum number of smart columns to display")
	logsQueryCmd.Flags().Int("max-chars", 0, "Maximum characters to display per log entry")
	queryFlags(logsQueryLogsetCmd)
	queryFlags(logsQueryAllCmd)

	logsTopkeysCmd.Flags().Int("limit", 80, "Limit the number of keys displayed")

	logsUsageCmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	logsUsageCmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	logsUsageCmd.Flags().String("time-range", "", "Relative time range for per-log usage")
	logsUsageCmd.Flags().Bool("per-log", false, "Break usage down per log")

	siemLogsCmd.AddCommand(
		logsListCmd, logsQueryCmd, logsQueryLogsetCmd, logsQueryAllCmd,
		logsTopkeysCmd, logsUsageCmd, logsLeqlCmd,
	)
	siemCmd.AddCommand(siemLogsCmd)
}
