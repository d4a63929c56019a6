package recommendation

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatInput renders the patient and candidates as the French text block
// read by the language-model authority. Absent fields produce no line.
func FormatInput(req *Request, candidates []Candidate) string {
	var b strings.Builder

	b.WriteString("* Données du Patient:\n")
	if req.IsUrgent {
		b.WriteString("- Demande une attention immédiate\n")
	}
	if cond := strings.TrimSpace(req.Condition); cond != "" {
		fmt.Fprintf(&b, "- %s\n", cond)
	}
	if eq := nonBlank(req.RequiredEquipment); len(eq) > 0 {
		fmt.Fprintf(&b, "- Nécessite: %s\n", strings.Join(eq, ", "))
	}
	if spec := strings.TrimSpace(req.RequiredSpecialist); spec != "" {
		fmt.Fprintf(&b, "- Spécialiste requis: %s\n", spec)
	}
	if req.Age != nil {
		fmt.Fprintf(&b, "- Age Estimé: %s ans\n", strconv.FormatFloat(*req.Age, 'f', -1, 64))
	}
	if meds := nonBlank(req.RequiredMedications); len(meds) > 0 {
		fmt.Fprintf(&b, "- Médicaments nécessaires: %s\n", strings.Join(meds, ", "))
	}
	b.WriteString("\n")

	for i := range candidates {
		c := &candidates[i]
		fmt.Fprintf(&b, "* Hopital %d: \n", i+1)
		fmt.Fprintf(&b, "- hospital_id: %s\n", c.ID())
		fmt.Fprintf(&b, "- hospital_name: %s\n", c.Hospital.Name)
		if c.Hospital.HasEmergencyBlock {
			b.WriteString("- Block d'urgence disponible\n")
		} else {
			b.WriteString("- Block d'urgence non disponible\n")
		}
		if len(c.Doctors) > 0 {
			docs := make([]string, len(c.Doctors))
			for j, d := range c.Doctors {
				docs[j] = d.Name + " - " + d.Specialty
			}
			fmt.Fprintf(&b, "- Docteurs disponibles: %s\n", strings.Join(docs, ", "))
		}
		if len(c.Equipment) > 0 {
			fmt.Fprintf(&b, "- Equipements Medicales: %s\n", strings.Join(c.Equipment, ", "))
		}
		if len(c.Medications) > 0 {
			fmt.Fprintf(&b, "- Médicaments: %s\n", strings.Join(c.Medications, ", "))
		}
		fmt.Fprintf(&b, "- Traffic vers l'hopital %s\n", c.Traffic.Label())
		fmt.Fprintf(&b, "- Distance: %.2f km\n", c.Distance)
		b.WriteString("\n")
	}
	return b.String()
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
