package model

// SuperadminModels lists every table migrated into the superadmin datastore
func SuperadminModels() []interface{} {
	return []interface{}{
		&SuperAdmin{},
		&InstitutionalHead{},
		&University{},
		&AssignmentIntent{},
		&AdminAuditLog{},
		&JWTTokenBlacklist{},
		&CronJobLog{},
	}
}
