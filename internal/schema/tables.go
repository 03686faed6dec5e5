package schema

import "github.com/SundayYogurt/directory_service/internal/domain"

func str(name string) FieldDescriptor { return FieldDescriptor{Name: name, Kind: KindString} }

func required(fd FieldDescriptor) FieldDescriptor {
	fd.Required = true
	return fd
}

func fk(name string, ref domain.RefKind) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: KindFK, Ref: ref}
}

func text(name string) FieldDescriptor  { return FieldDescriptor{Name: name, Kind: KindText} }
func flag(name string) FieldDescriptor  { return FieldDescriptor{Name: name, Kind: KindBool} }
func date(name string) FieldDescriptor  { return FieldDescriptor{Name: name, Kind: KindDate} }
func link(name string) FieldDescriptor  { return FieldDescriptor{Name: name, Kind: KindURL, Rules: "url"} }
func image(name string) FieldDescriptor { return FieldDescriptor{Name: name, Kind: KindImage} }
func email(name string) FieldDescriptor { return FieldDescriptor{Name: name, Kind: KindEmail, Rules: "email"} }

func phone(name string) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: KindPhone, Rules: "numeric,min=6,max=15"}
}

func secret(name string) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: KindSecret, Rules: "min=6", CreateOnly: true, Hidden: true}
}

func eventFields(typeField string) []FieldDescriptor {
	return []FieldDescriptor{
		fk(typeField, domain.RefEventType),
		required(str("full_name")),
		str("short_name"),
		date("start_date"),
		date("end_date"),
		fk("month", domain.RefMonth),
		fk("year", domain.RefYear),
		str("time"),
		fk("fee", domain.RefFee),
		str("city"),
		fk("state", domain.RefState),
		fk("venue", domain.RefVenue),
		link("website"),
		str("frequency"),
		fk("organizer_company", domain.RefCompany),
		fk("segment", domain.RefSegment),
		fk("national_association", domain.RefAssociation),
		fk("hosting_association", domain.RefAssociation),
		image("logo"),
		flag("featured"),
	}
}

var tables = map[domain.EntityType]*Table{
	domain.EntityAssociation: newTable(domain.EntityAssociation, "association_name",
		[]string{"association_name", "city"},
		required(str("association_name")),
		link("website"),
		str("city"),
		fk("state", domain.RefState),
		text("address"),
		fk("association_type", domain.RefAssociationType),
	),
	domain.EntityCompany: newTable(domain.EntityCompany, "company_name",
		[]string{"company_name", "city", "user_id"},
		required(str("company_name")),
		fk("company_type", domain.RefCompanyType),
		str("city"),
		fk("state", domain.RefState),
		text("address"),
		phone("phone"),
		link("website"),
		link("map"),
		image("logo"),
		flag("featured"),
		email("user_id"),
		secret("password"),
	),
	domain.EntityVenue: newTable(domain.EntityVenue, "venue_name",
		[]string{"venue_name", "city"},
		required(str("venue_name")),
		str("city"),
		fk("state", domain.RefState),
		text("address"),
		phone("phone"),
		link("website"),
		link("map"),
		image("photo"),
		image("layout"),
		flag("featured"),
	),
	domain.EntityConference: newTable(domain.EntityConference, "full_name",
		[]string{"full_name", "short_name", "city"},
		eventFields("conference_type")...,
	),
	domain.EntityExhibition: newTable(domain.EntityExhibition, "full_name",
		[]string{"full_name", "short_name", "city"},
		append(eventFields("exhibition_type"),
			text("exhibitor_profile"),
			text("visitor_profile"),
		)...,
	),
	domain.EntityKeyContact: newTable(domain.EntityKeyContact, "contact_name",
		[]string{"contact_name", "email"},
		required(str("contact_name")),
		phone("mobile"),
		email("email"),
		fk("state", domain.RefState),
		fk("organizer_company", domain.RefCompany),
		fk("venue", domain.RefVenue),
		fk("association", domain.RefAssociation),
	),
}
