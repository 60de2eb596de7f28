package config

import "github.com/spf13/viper"

// applyDefaults seeds the compiled defaults used when a configuration
// file is absent or silent on a key. Explicit Set calls and file values
// both override these.
func applyDefaults(v *viper.Viper) {
	// general (config.yml)
	v.SetDefault("general.sitename", "A sample site")
	v.SetDefault("general.payoff", "The amazing payoff goes here")
	v.SetDefault("general.theme", "base-2016")
	v.SetDefault("general.locale", "en_GB")
	v.SetDefault("general.homepage_template", "index.twig")
	v.SetDefault("general.record_template", "record.twig")
	v.SetDefault("general.listing_template", "listing.twig")
	v.SetDefault("general.listing_records", 6)
	v.SetDefault("general.caching.request", false)
	v.SetDefault("general.caching.duration", 10)
	v.SetDefault("general.caching.backend", "filesystem")
	v.SetDefault("general.cookies_lifetime", 14*24*3600)
	v.SetDefault("general.enforce_ssl", false)
	v.SetDefault("general.database.driver", "sqlite")
	v.SetDefault("general.database.databasename", "bolt")
	v.SetDefault("general.database.prefix", "bolt_")
	v.SetDefault("general.logging.level", "info")
	v.SetDefault("general.logging.format", "console")
	v.SetDefault("general.observability.enabled", false)

	// contenttypes (contenttypes.yml)
	v.SetDefault("contenttypes.pages.name", "Pages")
	v.SetDefault("contenttypes.pages.singular_name", "Page")
	v.SetDefault("contenttypes.pages.taxonomy", []string{"categories"})
	v.SetDefault("contenttypes.entries.name", "Entries")
	v.SetDefault("contenttypes.entries.singular_name", "Entry")
	v.SetDefault("contenttypes.entries.taxonomy", []string{"categories"})
	v.SetDefault("contenttypes.showcases.name", "Showcases")
	v.SetDefault("contenttypes.showcases.singular_name", "Showcase")
	v.SetDefault("contenttypes.showcases.taxonomy", []string{"categories"})

	// menu (menu.yml)
	v.SetDefault("menu.main", []map[string]any{
		{"label": "Home", "path": "homepage"},
	})

	// permissions (permissions.yml)
	v.SetDefault("permissions.global.login", []string{"everyone"})
	v.SetDefault("permissions.global.dashboard", []string{"admin", "editor", "chief-editor"})
	v.SetDefault("permissions.global.settings", []string{"admin"})
	v.SetDefault("permissions.contenttype-default.edit", []string{"editor", "chief-editor", "admin"})
	v.SetDefault("permissions.contenttype-default.create", []string{"editor", "chief-editor", "admin"})
	v.SetDefault("permissions.contenttype-default.publish", []string{"chief-editor", "admin"})
	v.SetDefault("permissions.contenttype-default.delete", []string{"admin"})
	v.SetDefault("permissions.contenttype-default.view", []string{"everyone"})

	// routing (routing.yml)
	v.SetDefault("routing.homepage.path", "/")
	v.SetDefault("routing.contentlink.path", "/{contenttypeslug}/{slug}")

	// taxonomy (taxonomy.yml)
	v.SetDefault("taxonomy.categories.name", "Categories")
	v.SetDefault("taxonomy.categories.slug", "categories")
	v.SetDefault("taxonomy.categories.behaves_like", "categories")
	v.SetDefault("taxonomy.categories.options", []string{"main", "meta"})
	v.SetDefault("taxonomy.tags.name", "Tags")
	v.SetDefault("taxonomy.tags.slug", "tags")
	v.SetDefault("taxonomy.tags.behaves_like", "tags")
}
