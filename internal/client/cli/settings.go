package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

// SettingGet prints the JSON value stored under name.
func (a *App) SettingGet(ctx context.Context, name string) error {
	var v any
	ok, err := a.journal.GetSetting(ctx, name, &v)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("setting %q is not set", name)
	}
	return a.printJSON(v)
}

// SettingSet stores raw under name. Valid JSON is stored as is; anything else
// is stored as a string.
func (a *App) SettingSet(ctx context.Context, name, raw string) error {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	if err := a.journal.PutSetting(ctx, name, v); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s = %s\n", name, mustJSON(v))
	return nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
