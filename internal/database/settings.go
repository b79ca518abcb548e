package database

import "context"

const listAppSettings = `
SELECT key, value, updated_at
FROM app_settings
WHERE key = ANY($1)`

func (q *Queries) ListAppSettings(ctx context.Context, keys []string) ([]AppSetting, error) {
	rows, err := q.db.Query(ctx, listAppSettings, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []AppSetting
	for rows.Next() {
		var s AppSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

const upsertAppSetting = `
INSERT INTO app_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
RETURNING key, value, updated_at`

type UpsertAppSettingParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertAppSetting(ctx context.Context, arg UpsertAppSettingParams) (AppSetting, error) {
	var s AppSetting
	err := q.db.QueryRow(ctx, upsertAppSetting, arg.Key, arg.Value).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}
